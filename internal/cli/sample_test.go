package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

func writeFeatureTable(t *testing.T, tags []string) string {
	t.Helper()
	ids := make([]int64, len(tags))
	for i := range ids {
		ids[i] = int64(i)
	}
	arr := &ndarray.Array{Cols: []ndarray.Column{
		{Name: "source_id", Kind: ndarray.Int64, Ints: ids},
		{Name: "ogle3_type", Kind: ndarray.String, Strings: tags},
	}}
	path := filepath.Join(t.TempDir(), "features.pwp")
	require.NoError(t, ndarray.Write(path, arr))
	return path
}

func TestSampleCommand(t *testing.T) {
	configPath, s := writeTestConfig(t)
	ctx := context.Background()

	require.NoError(t, s.InsertTile(ctx, &survey.Tile{Name: "b278", CatalogPath: "/data/b278.pwp"}))
	features := writeFeatureTable(t, []string{"cep", "", "", "rrlyr", ""})
	_, err := s.PutLightCurves(ctx, "b278", features)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "training.pwp")
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sample", "--config", configPath, "b278",
		"-o", out, "-s", "4", "--ignore-memory"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "2 variables + 4 unknown = 6 rows")

	arr, err := ndarray.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 6, arr.Rows())
}

func TestSampleCommand_UnknownTile(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sample", "--config", configPath, "b999",
		"-o", filepath.Join(t.TempDir(), "out.pwp"), "--ignore-memory"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
