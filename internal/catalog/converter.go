package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
)

// Converter turns a raw exposure file into an ASCII catalog table.
// The exec implementation shells out to the versioned survey tool;
// tests inject fakes so no real executable runs.
type Converter interface {
	Convert(ctx context.Context, rawPath, outPath string) error
}

// ExecConverter invokes the external flux-to-magnitude executable.
//
// The tool expects a bare filename, so the process runs with the raw
// file's containing directory as its working directory and receives
// only the basename as argument. A non-zero exit, a missing binary or
// a timeout all surface as ExternalToolError.
type ExecConverter struct {
	// Bin is the converter executable path.
	Bin string

	// Timeout bounds one invocation; zero means no bound.
	Timeout time.Duration
}

func (c *ExecConverter) Convert(ctx context.Context, rawPath, outPath string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Bin, filepath.Base(rawPath), outPath)
	cmd.Dir = filepath.Dir(rawPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return &ExternalToolError{
			Tool:   c.Bin,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return nil
}

// Load runs the converter on a raw exposure and parses the resulting
// table into the 27-column array.
//
// The converter writes into a temporary directory scoped to this call;
// the directory is removed on success and on every failure path.
func Load(ctx context.Context, conv Converter, rawPath string) (*ndarray.Array, error) {
	tmpDir, err := os.MkdirTemp("", "pawpipe_ppstk_")
	if err != nil {
		return nil, fmt.Errorf("allocate temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	base := filepath.Base(rawPath)
	asciiName := strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
	asciiPath := filepath.Join(tmpDir, asciiName)

	if err := conv.Convert(ctx, rawPath, asciiPath); err != nil {
		return nil, err
	}

	return ParseTable(asciiPath)
}
