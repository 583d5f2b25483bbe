package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverter copies a canned table to the output path, recording
// the call for assertions.
type fakeConverter struct {
	table string
	err   error
	calls []struct{ raw, out string }
}

func (f *fakeConverter) Convert(_ context.Context, rawPath, outPath string) error {
	f.calls = append(f.calls, struct{ raw, out string }{rawPath, outPath})
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte(f.table), 0o644)
}

func TestLoad_ParsesConverterOutput(t *testing.T) {
	raw := filepath.Join(t.TempDir(), "v20140616_00123_st.fit")
	require.NoError(t, os.WriteFile(raw, []byte("fits payload"), 0o644))

	conv := &fakeConverter{table: tableRow(5, 30, 0, -69, 0, 36) + "\n"}
	arr, err := Load(context.Background(), conv, raw)
	require.NoError(t, err)
	assert.Equal(t, 1, arr.Rows())

	require.Len(t, conv.calls, 1)
	assert.Equal(t, raw, conv.calls[0].raw)
	assert.Equal(t, "v20140616_00123_st.txt", filepath.Base(conv.calls[0].out),
		"ascii table keeps the raw basename with a .txt extension")

	// The temp directory the table landed in must be gone.
	_, statErr := os.Stat(filepath.Dir(conv.calls[0].out))
	assert.True(t, os.IsNotExist(statErr), "temp dir must be removed on success")
}

func TestLoad_TempDirRemovedOnFailure(t *testing.T) {
	raw := filepath.Join(t.TempDir(), "bad.fit")
	require.NoError(t, os.WriteFile(raw, []byte("x"), 0o644))

	conv := &fakeConverter{err: &ExternalToolError{Tool: "vvv_flx2mag", Err: fmt.Errorf("exit status 2")}}
	_, err := Load(context.Background(), conv, raw)

	var te *ExternalToolError
	require.ErrorAs(t, err, &te)
	require.Len(t, conv.calls, 1)
	_, statErr := os.Stat(filepath.Dir(conv.calls[0].out))
	assert.True(t, os.IsNotExist(statErr), "temp dir must be removed on failure")
}

func TestLoad_MalformedOutputFailsWhole(t *testing.T) {
	raw := filepath.Join(t.TempDir(), "short.fit")
	require.NoError(t, os.WriteFile(raw, []byte("x"), 0o644))

	conv := &fakeConverter{table: tableRow(5, 30, 0, -69, 0, 36) + "\n1 2 3\n"}
	_, err := Load(context.Background(), conv, raw)

	var mc *MalformedCatalogError
	assert.ErrorAs(t, err, &mc)
}

func TestExecConverter_RunsInRawFileDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}

	rawDir := t.TempDir()
	raw := filepath.Join(rawDir, "exposure.fit")
	require.NoError(t, os.WriteFile(raw, []byte("x"), 0o644))

	// The script proves it saw a bare filename by resolving it against
	// its own working directory, then echoes pwd into the output.
	script := filepath.Join(t.TempDir(), "flx2mag.sh")
	require.NoError(t, os.WriteFile(script, []byte(
		"#!/bin/sh\ntest -f \"$1\" || exit 3\npwd > \"$2\"\n"), 0o755))

	out := filepath.Join(t.TempDir(), "out.txt")
	conv := &ExecConverter{Bin: script}
	require.NoError(t, conv.Convert(context.Background(), raw, out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(rawDir)
	require.NoError(t, err)
	assert.Equal(t, resolved, strings.TrimSpace(string(got)))
}

func TestExecConverter_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}

	script := filepath.Join(t.TempDir(), "broken.sh")
	require.NoError(t, os.WriteFile(script, []byte(
		"#!/bin/sh\necho 'catalog conversion failed' >&2\nexit 2\n"), 0o755))

	raw := filepath.Join(t.TempDir(), "exposure.fit")
	require.NoError(t, os.WriteFile(raw, []byte("x"), 0o644))

	conv := &ExecConverter{Bin: script}
	err := conv.Convert(context.Background(), raw, filepath.Join(t.TempDir(), "out.txt"))

	var te *ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Stderr, "catalog conversion failed")
	assert.Equal(t, "EXTERNAL_TOOL", te.FaultCode())
}

func TestExecConverter_MissingBinary(t *testing.T) {
	conv := &ExecConverter{Bin: filepath.Join(t.TempDir(), "does-not-exist")}
	raw := filepath.Join(t.TempDir(), "exposure.fit")
	require.NoError(t, os.WriteFile(raw, []byte("x"), 0o644))

	err := conv.Convert(context.Background(), raw, filepath.Join(t.TempDir(), "out.txt"))
	var te *ExternalToolError
	assert.ErrorAs(t, err, &te)
}

func TestExecConverter_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}

	script := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o755))

	raw := filepath.Join(t.TempDir(), "exposure.fit")
	require.NoError(t, os.WriteFile(raw, []byte("x"), 0o644))

	conv := &ExecConverter{Bin: script, Timeout: 50 * time.Millisecond}
	start := time.Now()
	err := conv.Convert(context.Background(), raw, filepath.Join(t.TempDir(), "out.txt"))

	var te *ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}
