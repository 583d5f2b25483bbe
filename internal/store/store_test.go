package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vvvsurvey/pawpipe/internal/survey"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"tiles", "pawprint_stacks", "pawprint_x_tiles", "light_curves"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestInsertAndGetPawprintStack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &survey.PawprintStack{
		Name:    "v20140616_00123",
		RawPath: "/data/raw/v20140616_00123.fit",
		Size:    1024,
	}
	if err := s.InsertPawprintStack(ctx, p); err != nil {
		t.Fatalf("InsertPawprintStack: %v", err)
	}
	if p.ID == 0 {
		t.Error("insert must populate the ID")
	}

	got, err := s.GetPawprintStack(ctx, "v20140616_00123")
	if err != nil {
		t.Fatalf("GetPawprintStack: %v", err)
	}
	if got.Status != survey.StatusRaw {
		t.Errorf("status = %q, want raw", got.Status)
	}
	if got.Band != "" || got.MJD != 0 || got.ArtifactPath != "" {
		t.Errorf("band/mjd/artifact must be unset before normalization, got %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetTile(ctx, "b999")
	if err == nil {
		t.Fatal("expected error for missing tile")
	}
}

func TestInsertPawprintXTile_UniquePerPair(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertTile(ctx, &survey.Tile{Name: "b396"}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertPawprintStack(ctx, &survey.PawprintStack{Name: "pwp1", RawPath: "/raw/pwp1.fit"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.InsertPawprintXTile(ctx, "b396", "pwp1"); err != nil {
		t.Fatalf("first association: %v", err)
	}
	if _, err := s.InsertPawprintXTile(ctx, "b396", "pwp1"); err == nil {
		t.Error("second association for the same pair must fail")
	}
}

func TestCommit_ValidTransitionWithPayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &survey.PawprintStack{Name: "pwp1", RawPath: "/raw/pwp1.fit"}
	if err := s.InsertPawprintStack(ctx, p); err != nil {
		t.Fatal(err)
	}

	p.Status = survey.StatusProcessing
	if err := s.Commit(ctx, p); err != nil {
		t.Fatalf("raw -> processing: %v", err)
	}

	p.Status = survey.StatusReady
	p.Band = "Ks"
	p.MJD = 56824.1376
	p.ArtifactPath = "/data/arrays/pwp1.pwpa"
	if err := s.Commit(ctx, p); err != nil {
		t.Fatalf("processing -> ready: %v", err)
	}

	got, err := s.GetPawprintStack(ctx, "pwp1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != survey.StatusReady || got.Band != "Ks" || got.MJD != 56824.1376 {
		t.Errorf("band/mjd/status must land in one commit, got %+v", got)
	}
}

func TestCommit_RejectsIllegalTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &survey.PawprintStack{Name: "pwp1", RawPath: "/raw/pwp1.fit"}
	if err := s.InsertPawprintStack(ctx, p); err != nil {
		t.Fatal(err)
	}

	p.Status = survey.StatusReady // raw -> ready skips processing
	if err := s.Commit(ctx, p); err == nil {
		t.Fatal("illegal transition must be rejected at commit time")
	}

	got, err := s.GetPawprintStack(ctx, "pwp1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != survey.StatusRaw {
		t.Errorf("rejected commit must leave the row untouched, status = %q", got.Status)
	}
}

func TestRecordFault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &survey.PawprintStack{Name: "pwp1", RawPath: "/raw/pwp1.fit"}
	if err := s.InsertPawprintStack(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Status = survey.StatusProcessing
	if err := s.Commit(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := s.RecordFault(ctx, p, "header extraction: key missing", "run-1"); err != nil {
		t.Fatalf("RecordFault: %v", err)
	}

	got, err := s.GetPawprintStack(ctx, "pwp1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != survey.StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	cause, run, err := s.Fault(ctx, survey.KindPawprintStack, "pwp1")
	if err != nil {
		t.Fatal(err)
	}
	if cause != "header extraction: key missing" || run != "run-1" {
		t.Errorf("fault = %q run = %q", cause, run)
	}
}

func TestRecordFault_TileKeepsStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tile := &survey.Tile{Name: "b396", Status: survey.StatusReadyToMatch}
	if err := s.InsertTile(ctx, tile); err != nil {
		t.Fatal(err)
	}

	if err := s.RecordFault(ctx, tile, "tile has no light curves", "run-2"); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTile(ctx, "b396")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != survey.StatusReadyToMatch {
		t.Errorf("tile status must not change on fault, got %q", got.Status)
	}
}

func TestCommit_ClearsFault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &survey.PawprintStack{Name: "pwp1", RawPath: "/raw/pwp1.fit"}
	if err := s.InsertPawprintStack(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Status = survey.StatusProcessing
	if err := s.Commit(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordFault(ctx, p, "boom", "run-1"); err != nil {
		t.Fatal(err)
	}

	// Manual reset and a clean re-run.
	reset, err := s.GetPawprintStack(ctx, "pwp1")
	if err != nil {
		t.Fatal(err)
	}
	reset.Status = survey.StatusRaw
	if err := s.Commit(ctx, reset); err != nil {
		t.Fatalf("failed -> raw reset: %v", err)
	}

	cause, _, err := s.Fault(ctx, survey.KindPawprintStack, "pwp1")
	if err != nil {
		t.Fatal(err)
	}
	if cause != "" {
		t.Errorf("successful commit must clear the fault, got %q", cause)
	}
}

func TestSelectNames_FiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"pwp3", "pwp1", "pwp2"} {
		if err := s.InsertPawprintStack(ctx, &survey.PawprintStack{Name: name, RawPath: "/raw/" + name}); err != nil {
			t.Fatal(err)
		}
	}
	p2, err := s.GetPawprintStack(ctx, "pwp2")
	if err != nil {
		t.Fatal(err)
	}
	p2.Status = survey.StatusProcessing
	if err := s.Commit(ctx, p2); err != nil {
		t.Fatal(err)
	}

	names, err := s.SelectNames(ctx, survey.KindPawprintStack,
		[]Condition{StatusIs(survey.StatusRaw)})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "pwp1" || names[1] != "pwp3" {
		t.Errorf("names = %v, want [pwp1 pwp3]", names)
	}
}

func TestSelectNames_RejectsUnknownField(t *testing.T) {
	s := openTestStore(t)
	_, err := s.SelectNames(context.Background(), survey.KindPawprintStack,
		[]Condition{Eq("raw_path; DROP TABLE tiles", "x")})
	if err == nil {
		t.Fatal("field outside the allowlist must be rejected")
	}
}

func TestSelectNames_Associations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertTile(ctx, &survey.Tile{Name: "b396"}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"pwp2", "pwp1"} {
		if err := s.InsertPawprintStack(ctx, &survey.PawprintStack{Name: name, RawPath: "/raw/" + name}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.InsertPawprintXTile(ctx, "b396", name); err != nil {
			t.Fatal(err)
		}
	}

	names, err := s.SelectNames(ctx, survey.KindPawprintXTile,
		[]Condition{StatusIs(survey.StatusPending)})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "b396:pwp1" || names[1] != "b396:pwp2" {
		t.Errorf("names = %v", names)
	}

	e, err := s.Get(ctx, survey.KindPawprintXTile, "b396:pwp1")
	if err != nil {
		t.Fatal(err)
	}
	if e.EntityName() != "b396:pwp1" {
		t.Errorf("EntityName = %q", e.EntityName())
	}
}

func TestPutLightCurves_Replaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertTile(ctx, &survey.Tile{Name: "b396"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutLightCurves(ctx, "b396", "/data/lc/b396.pwpa"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutLightCurves(ctx, "b396", "/data/lc/b396_v2.pwpa"); err != nil {
		t.Fatal(err)
	}

	lc, err := s.GetLightCurves(ctx, "b396")
	if err != nil {
		t.Fatal(err)
	}
	if lc.FeaturesPath != "/data/lc/b396_v2.pwpa" {
		t.Errorf("features path = %q", lc.FeaturesPath)
	}
}
