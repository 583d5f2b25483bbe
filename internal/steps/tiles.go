package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// tagColumn carries the variable-star classification tag in tile
// catalogs and feature tables. The empty string marks an unknown
// source.
const tagColumn = "ogle3_type"

// PrepareTiles verifies raw tile catalogs and stages them for
// matching. The catalog artifact must open as a column array; its
// byte size and the count of tagged sources are recorded in the same
// commit that moves the tile to ready-to-match.
type PrepareTiles struct{}

func (*PrepareTiles) Name() string      { return "preprocess-tiles" }
func (*PrepareTiles) Group() string     { return "preprocess" }
func (*PrepareTiles) Kind() survey.Kind { return survey.KindTile }

func (*PrepareTiles) Conditions() []store.Condition {
	return []store.Condition{store.StatusIs(survey.StatusRaw)}
}

func (*PrepareTiles) Process(ctx context.Context, e survey.Entity) (survey.Entity, error) {
	t, ok := e.(*survey.Tile)
	if !ok {
		return nil, fmt.Errorf("unexpected entity type %T", e)
	}

	info, err := os.Stat(t.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("tile catalog: %w", err)
	}

	arr, err := ndarray.Open(t.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("tile catalog %s: %w", t.CatalogPath, err)
	}

	var tagged int64
	if col, err := arr.Col(tagColumn); err == nil {
		for _, tag := range col.Strings {
			if tag != "" {
				tagged++
			}
		}
	}

	t.Size = info.Size()
	t.OGLE3Tagged = tagged
	t.Status = survey.StatusReadyToMatch
	return t, nil
}
