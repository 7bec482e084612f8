package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "publish-changes")
	if err != nil {
		t.Fatal(err)
	}
	if runID == 0 {
		t.Fatal("expected non-zero run ID")
	}

	if err := s.RecordAction(ctx, runID, "publish", "@acme/a", "1.1.0", "hotfix"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordAction(ctx, runID, "tag", "@acme/a", "1.1.0", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun(ctx, runID, "ok"); err != nil {
		t.Fatal(err)
	}

	t.Run("recent runs newest first", func(t *testing.T) {
		second, err := s.BeginRun(ctx, "publish-all")
		if err != nil {
			t.Fatal(err)
		}
		runs, err := s.RecentRuns(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 2 {
			t.Fatalf("got %d runs, want 2", len(runs))
		}
		if runs[0].ID != second || runs[0].Mode != "publish-all" {
			t.Errorf("newest run = %+v", runs[0])
		}
		if runs[1].Status != "ok" || runs[1].FinishedAt == nil {
			t.Errorf("finished run = %+v", runs[1])
		}
		if runs[0].Status != "running" || runs[0].FinishedAt != nil {
			t.Errorf("unfinished run = %+v", runs[0])
		}
	})

	t.Run("actions in insertion order", func(t *testing.T) {
		actions, err := s.RunActions(ctx, runID)
		if err != nil {
			t.Fatal(err)
		}
		if len(actions) != 2 {
			t.Fatalf("got %d actions, want 2", len(actions))
		}
		if actions[0].Kind != "publish" || actions[0].Detail != "hotfix" {
			t.Errorf("first action = %+v", actions[0])
		}
		if actions[1].Kind != "tag" {
			t.Errorf("second action = %+v", actions[1])
		}
	})
}

func TestNilStoreIsNoOp(t *testing.T) {
	t.Parallel()
	var s *Store
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "publish-changes")
	if err != nil || runID != 0 {
		t.Errorf("BeginRun on nil store: (%d, %v)", runID, err)
	}
	if err := s.RecordAction(ctx, 1, "publish", "a", "1.0.0", ""); err != nil {
		t.Errorf("RecordAction on nil store: %v", err)
	}
	if err := s.FinishRun(ctx, 1, "ok"); err != nil {
		t.Errorf("FinishRun on nil store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil store: %v", err)
	}
	if runs, err := s.RecentRuns(ctx, 5); err != nil || runs != nil {
		t.Errorf("RecentRuns on nil store: (%v, %v)", runs, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.BeginRun(ctx, "publish-all"); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	runs, err := s2.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs after reopen, want 1", len(runs))
	}
}
