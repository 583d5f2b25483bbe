package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
)

// writeSkyCatalog persists a minimal tile catalog with degree
// coordinates only.
func writeSkyCatalog(t *testing.T, path string, ra, dec []float64) {
	t.Helper()
	arr := &ndarray.Array{Cols: []ndarray.Column{
		{Name: "ra_deg", Kind: ndarray.Float64, Floats: ra},
		{Name: "dec_deg", Kind: ndarray.Float64, Floats: dec},
	}}
	require.NoError(t, ndarray.Write(path, arr))
}

// writeFITSFile builds a minimal primary header with the observation
// cards the preprocess step reads.
func writeFITSFile(t *testing.T, dir, name string) string {
	t.Helper()

	var buf []byte
	appendCard := func(s string) {
		card := make([]byte, 80)
		for i := range card {
			card[i] = ' '
		}
		copy(card, s)
		buf = append(buf, card...)
	}

	appendCard("SIMPLE  =                    T")
	appendCard("MJD-OBS =      56824.137616285")
	appendCard("HIERARCH ESO INS FILT1 NAME = 'Ks      '")
	appendCard("END")
	for len(buf)%2880 != 0 {
		appendCard("")
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}
