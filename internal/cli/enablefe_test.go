package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvvsurvey/pawpipe/internal/survey"
)

func TestEnableFECommand(t *testing.T) {
	configPath, s := writeTestConfig(t)
	ctx := context.Background()

	// ok: staged with light curves attached.
	ok := &survey.Tile{Name: "b278", CatalogPath: "/data/b278.pwp"}
	require.NoError(t, s.InsertTile(ctx, ok))
	ok.Status = survey.StatusReadyToMatch
	require.NoError(t, s.Commit(ctx, ok))
	_, err := s.PutLightCurves(ctx, "b278", "/data/features_b278.pwp")
	require.NoError(t, err)

	// bare: staged but no light curves.
	bare := &survey.Tile{Name: "b279", CatalogPath: "/data/b279.pwp"}
	require.NoError(t, s.InsertTile(ctx, bare))
	bare.Status = survey.StatusReadyToMatch
	require.NoError(t, s.Commit(ctx, bare))

	// early: still raw.
	require.NoError(t, s.InsertTile(ctx, &survey.Tile{Name: "b280", CatalogPath: "/data/b280.pwp"}))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"enable-fe", "--config", configPath, "b278", "b279", "b280", "b999"})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "[SUCCESS] b278")
	assert.Contains(t, out, "[FAIL] b279: no light-curves artifact attached")
	assert.Contains(t, out, `[FAIL] b280: tile is "raw"`)
	assert.Contains(t, out, "[FAIL] b999: unknown tile (known tiles: b278, b279, b280)")

	// The successful tile advanced and is flagged ready.
	got, err := s.GetTile(ctx, "b278")
	require.NoError(t, err)
	assert.Equal(t, survey.StatusReadyToExtractFeatures, got.Status)
	assert.True(t, got.Ready)

	// The failing tiles kept their statuses.
	got, err = s.GetTile(ctx, "b279")
	require.NoError(t, err)
	assert.Equal(t, survey.StatusReadyToMatch, got.Status)
	got, err = s.GetTile(ctx, "b280")
	require.NoError(t, err)
	assert.Equal(t, survey.StatusRaw, got.Status)
}

func TestEnableFECommand_AllSucceed(t *testing.T) {
	configPath, s := writeTestConfig(t)
	ctx := context.Background()

	tile := &survey.Tile{Name: "b278", CatalogPath: "/data/b278.pwp"}
	require.NoError(t, s.InsertTile(ctx, tile))
	tile.Status = survey.StatusReadyToMatch
	require.NoError(t, s.Commit(ctx, tile))
	_, err := s.PutLightCurves(ctx, "b278", "/data/features_b278.pwp")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"enable-fe", "--config", configPath, "b278"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "[SUCCESS] b278")
}
