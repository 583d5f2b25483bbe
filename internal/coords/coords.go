// Package coords converts sexagesimal angles to decimal degrees.
//
// Right ascension arrives as hour/minute/second fields, declination as
// degree/minute/second fields with the sign carried on the degree
// field only; minute and second fields are always non-negative
// magnitudes. The conversions are pure: NaN inputs propagate as NaN
// and never raise.
package coords

import (
	"fmt"
	"math"
)

// RADeg converts right ascension h:m:s to decimal degrees.
//
//	deg = 15 * (h + m/60 + s/3600)
func RADeg(h, m, s float64) float64 {
	return 15 * (h + m/60 + s/3600)
}

// DecDeg converts declination d:m:s to decimal degrees.
//
// The sign is read from the degree field alone:
//
//	deg = sign(d) * (|d| + m/60 + s/3600)
//
// A +0 degree field yields a positive result so that the minute and
// second magnitudes survive on the equator.
func DecDeg(d, m, s float64) float64 {
	return math.Copysign(math.Abs(d)+m/60+s/3600, d)
}

// RADegSlice converts parallel h/m/s columns in one pass.
// All three slices must have equal length.
func RADegSlice(h, m, s []float64) ([]float64, error) {
	if len(m) != len(h) || len(s) != len(h) {
		return nil, fmt.Errorf("ra columns disagree on length: h=%d m=%d s=%d", len(h), len(m), len(s))
	}
	out := make([]float64, len(h))
	for i := range h {
		out[i] = RADeg(h[i], m[i], s[i])
	}
	return out, nil
}

// DecDegSlice converts parallel d/m/s columns in one pass.
// All three slices must have equal length.
func DecDegSlice(d, m, s []float64) ([]float64, error) {
	if len(m) != len(d) || len(s) != len(d) {
		return nil, fmt.Errorf("dec columns disagree on length: d=%d m=%d s=%d", len(d), len(m), len(s))
	}
	out := make([]float64, len(d))
	for i := range d {
		out[i] = DecDeg(d[i], m[i], s[i])
	}
	return out, nil
}
