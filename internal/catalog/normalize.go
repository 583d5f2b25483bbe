package catalog

import (
	"fmt"

	"github.com/vvvsurvey/pawpipe/internal/coords"
	"github.com/vvvsurvey/pawpipe/internal/ndarray"
)

// Normalize extends a parsed pawprint array with decimal-degree
// coordinates. The output schema is ra_deg, dec_deg followed by all
// original columns in their original order; that ordering is part of
// the artifact contract consumed by tile matching. Row count is
// preserved exactly, including the zero-row case.
func Normalize(parsed *ndarray.Array) (*ndarray.Array, error) {
	raH, err := parsed.FloatCol("ra_h")
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	raM, err := parsed.FloatCol("ra_m")
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	raS, err := parsed.FloatCol("ra_s")
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	decD, err := parsed.FloatCol("dec_d")
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	decM, err := parsed.FloatCol("dec_m")
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	decS, err := parsed.FloatCol("dec_s")
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	raDeg, err := coords.RADegSlice(raH, raM, raS)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	decDeg, err := coords.DecDegSlice(decD, decM, decS)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	cols := make([]ndarray.Column, 0, len(parsed.Cols)+2)
	cols = append(cols,
		ndarray.Column{Name: "ra_deg", Kind: ndarray.Float64, Floats: raDeg},
		ndarray.Column{Name: "dec_deg", Kind: ndarray.Float64, Floats: decDeg},
	)
	cols = append(cols, parsed.Cols...)

	return &ndarray.Array{Cols: cols}, nil
}
