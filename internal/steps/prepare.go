package steps

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vvvsurvey/pawpipe/internal/catalog"
	"github.com/vvvsurvey/pawpipe/internal/ndarray"
	"github.com/vvvsurvey/pawpipe/internal/pipeline"
	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// PreparePawprints normalizes raw pawprint-stack catalogs.
//
// For each raw stack it extracts the observation band and MJD from
// the FITS header, converts and parses the source table, prepends the
// degree coordinates and writes the result as a binary artifact. Band,
// mjd, artifact path and the ready status land in one commit; any
// failure leaves the row failed with only the fault recorded.
type PreparePawprints struct {
	// Converter turns the raw exposure into an ASCII source table.
	Converter catalog.Converter

	// DataDir receives the normalized artifacts, one per stack.
	DataDir string
}

func (*PreparePawprints) Name() string      { return "preprocess-pawprints" }
func (*PreparePawprints) Group() string     { return "preprocess" }
func (*PreparePawprints) Kind() survey.Kind { return survey.KindPawprintStack }

func (*PreparePawprints) Conditions() []store.Condition {
	return []store.Condition{store.StatusIs(survey.StatusRaw)}
}

// TransientStatus holds the stack in processing while the converter
// and parser run.
func (*PreparePawprints) TransientStatus() survey.Status { return survey.StatusProcessing }

func (s *PreparePawprints) Process(ctx context.Context, e survey.Entity) (survey.Entity, error) {
	p, ok := e.(*survey.PawprintStack)
	if !ok {
		return nil, fmt.Errorf("unexpected entity type %T", e)
	}

	band, mjd, err := catalog.ExtractObservation(p.RawPath)
	if err != nil {
		return nil, err
	}

	parsed, err := catalog.Load(ctx, s.Converter, p.RawPath)
	if err != nil {
		return nil, err
	}
	normalized, err := catalog.Normalize(parsed)
	if err != nil {
		return nil, err
	}

	// Overwrite on re-run: a stack reset from failed back to raw gets
	// a fresh artifact at the same path.
	artifact := filepath.Join(s.DataDir, p.Name+".pwp")
	if err := ndarray.Write(artifact, normalized); err != nil {
		return nil, fmt.Errorf("write artifact %s: %w", artifact, err)
	}

	p.Band = band
	p.MJD = mjd
	p.ArtifactPath = artifact
	p.Status = survey.StatusReady
	return p, nil
}

var _ pipeline.Transitional = (*PreparePawprints)(nil)
