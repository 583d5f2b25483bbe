package steps

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// StagePawprints advances normalized stacks that have at least one
// tile association into the matching stage. Stacks without
// associations stay ready until an association is created.
type StagePawprints struct {
	Store *store.Store
}

func (*StagePawprints) Name() string      { return "stage-pawprints" }
func (*StagePawprints) Group() string     { return "match" }
func (*StagePawprints) Kind() survey.Kind { return survey.KindPawprintStack }

func (*StagePawprints) Conditions() []store.Condition {
	return []store.Condition{store.StatusIs(survey.StatusReady)}
}

func (s *StagePawprints) Process(ctx context.Context, e survey.Entity) (survey.Entity, error) {
	p, ok := e.(*survey.PawprintStack)
	if !ok {
		return nil, fmt.Errorf("unexpected entity type %T", e)
	}
	assocs, err := s.Store.AssociationsForPawprint(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return nil, nil
	}
	p.Status = survey.StatusReadyToMatch
	return p, nil
}

// MatchAssociations resolves pending tile/pawprint associations by
// positional cross-match.
//
// An association is processed once both sides reached ready-to-match;
// until then it is skipped without error. The matched source count and
// the matched status land in one commit per association.
type MatchAssociations struct {
	Store *store.Store

	// RadiusArcsec is the maximum angular separation for a pawprint
	// source to count as matched against a tile source.
	RadiusArcsec float64
}

func (*MatchAssociations) Name() string      { return "match-pawprints" }
func (*MatchAssociations) Group() string     { return "match" }
func (*MatchAssociations) Kind() survey.Kind { return survey.KindPawprintXTile }

func (*MatchAssociations) Conditions() []store.Condition {
	return []store.Condition{store.StatusIs(survey.StatusPending)}
}

func (s *MatchAssociations) Process(ctx context.Context, e survey.Entity) (survey.Entity, error) {
	x, ok := e.(*survey.PawprintXTile)
	if !ok {
		return nil, fmt.Errorf("unexpected entity type %T", e)
	}

	tile, err := s.Store.GetTile(ctx, x.TileName)
	if err != nil {
		return nil, err
	}
	paw, err := s.Store.GetPawprintStack(ctx, x.PawprintName)
	if err != nil {
		return nil, err
	}
	if tile.Status != survey.StatusReadyToMatch || paw.Status != survey.StatusReadyToMatch {
		return nil, nil
	}

	tileRA, tileDec, err := radecColumns(tile.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("tile catalog: %w", err)
	}
	pawRA, pawDec, err := radecColumns(paw.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("pawprint artifact: %w", err)
	}

	x.MatchedNumber = countMatches(tileRA, tileDec, pawRA, pawDec, s.RadiusArcsec)
	x.Status = survey.StatusMatched
	return x, nil
}

// CloseMatches retires staged stacks once every one of their
// associations resolved to matched.
type CloseMatches struct {
	Store *store.Store
}

func (*CloseMatches) Name() string      { return "close-matches" }
func (*CloseMatches) Group() string     { return "match" }
func (*CloseMatches) Kind() survey.Kind { return survey.KindPawprintStack }

func (*CloseMatches) Conditions() []store.Condition {
	return []store.Condition{store.StatusIs(survey.StatusReadyToMatch)}
}

func (s *CloseMatches) Process(ctx context.Context, e survey.Entity) (survey.Entity, error) {
	p, ok := e.(*survey.PawprintStack)
	if !ok {
		return nil, fmt.Errorf("unexpected entity type %T", e)
	}
	assocs, err := s.Store.AssociationsForPawprint(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return nil, nil
	}
	for _, a := range assocs {
		if a.Status != survey.StatusMatched {
			return nil, nil
		}
	}
	p.Status = survey.StatusMatched
	return p, nil
}

// radecColumns opens an artifact and pulls its degree coordinates.
func radecColumns(path string) (ra, dec []float64, err error) {
	arr, err := ndarray.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if ra, err = arr.FloatCol("ra_deg"); err != nil {
		return nil, nil, err
	}
	if dec, err = arr.FloatCol("dec_deg"); err != nil {
		return nil, nil, err
	}
	return ra, dec, nil
}

// countMatches counts pawprint sources with at least one tile source
// within radiusArcsec.
//
// Tile sources are indexed by declination so each pawprint source only
// scans the declination window that can possibly match. Separation
// uses the flat-sky approximation, accurate to well below a
// milliarcsecond at arcsecond radii.
func countMatches(tileRA, tileDec, pawRA, pawDec []float64, radiusArcsec float64) int64 {
	if len(tileRA) == 0 || len(pawRA) == 0 {
		return 0
	}

	radius := radiusArcsec / 3600.0
	byDec := make([]int, len(tileDec))
	for i := range byDec {
		byDec[i] = i
	}
	sort.Slice(byDec, func(a, b int) bool { return tileDec[byDec[a]] < tileDec[byDec[b]] })

	var matched int64
	for i := range pawRA {
		ra, dec := pawRA[i], pawDec[i]
		if math.IsNaN(ra) || math.IsNaN(dec) {
			continue
		}
		lo := sort.Search(len(byDec), func(k int) bool { return tileDec[byDec[k]] >= dec-radius })
		cosDec := math.Cos(dec * math.Pi / 180)
		for k := lo; k < len(byDec); k++ {
			j := byDec[k]
			if tileDec[j] > dec+radius {
				break
			}
			dra := (tileRA[j] - ra) * cosDec
			ddec := tileDec[j] - dec
			if dra*dra+ddec*ddec <= radius*radius {
				matched++
				break
			}
		}
	}
	return matched
}
