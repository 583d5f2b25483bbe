package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvvsurvey/pawpipe/internal/pipeline"
	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// EnableFeatureExtraction releases matched tiles into feature
// extraction. A tile may only advance once a light-curves artifact is
// attached; advancing without one is reported as a per-tile
// precondition failure and the tile keeps its status.
type EnableFeatureExtraction struct {
	Store *store.Store
}

func (*EnableFeatureExtraction) Name() string      { return "enable-feature-extraction" }
func (*EnableFeatureExtraction) Group() string     { return "enable-fe" }
func (*EnableFeatureExtraction) Kind() survey.Kind { return survey.KindTile }

func (*EnableFeatureExtraction) Conditions() []store.Condition {
	return []store.Condition{store.StatusIs(survey.StatusReadyToMatch)}
}

func (s *EnableFeatureExtraction) Process(ctx context.Context, e survey.Entity) (survey.Entity, error) {
	t, ok := e.(*survey.Tile)
	if !ok {
		return nil, fmt.Errorf("unexpected entity type %T", e)
	}

	if _, err := s.Store.GetLightCurves(ctx, t.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &pipeline.PreconditionError{
				Kind:   survey.KindTile,
				Name:   t.Name,
				Reason: "no light-curves artifact attached",
			}
		}
		return nil, err
	}

	t.Ready = true
	t.Status = survey.StatusReadyToExtractFeatures
	return t, nil
}
