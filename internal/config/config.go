// Package config loads the pipeline configuration from a CUE file.
// The schema carries defaults, so an empty file is a valid
// configuration and partial files only override what they name.
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schema constrains and defaults every configuration field.
const schema = `
database:  string | *"pawpipe.db"
inputPath: string | *"raw"
dataPath:  string | *"data"

converter: {
	bin:            string | *"vvv_flx2mag"
	timeoutSeconds: int & >=0 | *0
}

matching: {
	radiusArcsec: number & >0 | *1.0
}

sampling: {
	minMemoryBytes: int & >=0 | *2147483648
	defaultSize:    int & >0 | *20000
}
`

// Config is the decoded pipeline configuration.
type Config struct {
	// Database is the SQLite entity-store path.
	Database string `json:"database"`

	// InputPath holds raw exposures and tile catalogs.
	InputPath string `json:"inputPath"`

	// DataPath receives normalized artifacts and samples.
	DataPath string `json:"dataPath"`

	Converter ConverterConfig `json:"converter"`
	Matching  MatchingConfig  `json:"matching"`
	Sampling  SamplingConfig  `json:"sampling"`
}

// ConverterConfig configures the external raw-to-ASCII converter.
type ConverterConfig struct {
	Bin string `json:"bin"`

	// TimeoutSeconds bounds one converter invocation. Zero means no
	// deadline.
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// Timeout returns the converter deadline as a duration.
func (c ConverterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MatchingConfig configures the positional cross-match.
type MatchingConfig struct {
	RadiusArcsec float64 `json:"radiusArcsec"`
}

// SamplingConfig configures training-set draws.
type SamplingConfig struct {
	MinMemoryBytes uint64 `json:"minMemoryBytes"`
	DefaultSize    int    `json:"defaultSize"`
}

// Load reads and validates a CUE configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates CUE source against the schema and decodes it.
func Parse(data []byte) (*Config, error) {
	ctx := cuecontext.New()

	sv := ctx.CompileString(schema)
	if err := sv.Err(); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	merged := sv.Unify(v)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration produced by an empty file.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config schema defaults are invalid: %v", err))
	}
	return cfg
}
