package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBeginAdvanceFinish(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	if err := s.Begin(ctx, "run-1", "production", "1.2.3"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, stage := range []string{"variant-resolved", "config-transformed", "native-built", "packaged"} {
		if err := s.Advance(ctx, "run-1", stage); err != nil {
			t.Fatalf("Advance(%s): %v", stage, err)
		}
	}
	if err := s.Finish(ctx, "run-1", StatusSucceeded, true, "dist/Cushion_1.2.3_aarch64.dmg", ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.ID != "run-1" || r.Variant != "production" || r.Version != "1.2.3" {
		t.Errorf("run = %+v", r)
	}
	if r.Stage != "packaged" {
		t.Errorf("stage = %q, want last advanced stage", r.Stage)
	}
	if r.Status != StatusSucceeded || !r.Signed {
		t.Errorf("status = %q signed = %v", r.Status, r.Signed)
	}
	if r.FinishedAt == nil {
		t.Error("finished_at not set")
	}
}

func TestFinish_Failure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	if err := s.Begin(ctx, "run-2", "development", "0.5.0"); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(ctx, "run-2", StatusFailed, false, "", "native build exited 1"); err != nil {
		t.Fatal(err)
	}

	runs, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].Status != StatusFailed || runs[0].Error == "" {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestRecent_OrderAndLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Begin(ctx, id, "production", "1.0.0"); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	// Newest first; inserts share a timestamp granularity so the id
	// tie-break applies.
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestNilStore_NoOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var s *Store

	if err := s.Begin(ctx, "x", "production", "1.0.0"); err != nil {
		t.Errorf("nil Begin: %v", err)
	}
	if err := s.Advance(ctx, "x", "packaged"); err != nil {
		t.Errorf("nil Advance: %v", err)
	}
	if err := s.Finish(ctx, "x", StatusSucceeded, false, "", ""); err != nil {
		t.Errorf("nil Finish: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
