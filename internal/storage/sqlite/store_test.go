package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/conveyorci/conveyor/internal/event"
	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "conveyor.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string, started time.Time) *runner.RunReport {
	exit := 0
	failExit := 1
	return &runner.RunReport{
		ID:       id,
		Pipeline: "release",
		Status:   runner.StatusFailed,
		Event: event.Event{
			Kind:   event.KindPush,
			Repo:   "acme/widgets",
			Branch: "master",
			Ref:    "refs/heads/master",
		},
		Steps: []runner.StepResult{
			{Name: "version-bump", Status: runner.StatusSucceeded, ExitCode: &exit, Output: "bumped to 1.2.0"},
			{Name: "push", Status: runner.StatusFailed, ExitCode: &failExit, Error: "remote rejected"},
			{Name: "publish", Status: runner.StatusSkipped},
		},
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleReport("run-1", time.Now().UTC().Truncate(time.Second))
	if err := s.SaveRun(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pipeline != "release" || got.Status != runner.StatusFailed {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Event.Branch != "master" || got.Event.Kind != event.KindPush {
		t.Errorf("unexpected event: %+v", got.Event)
	}
	if len(got.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(got.Steps))
	}
	if got.Steps[0].Name != "version-bump" || got.Steps[1].Name != "push" || got.Steps[2].Name != "publish" {
		t.Errorf("step order not preserved: %+v", got.Steps)
	}
	if got.Steps[1].ExitCode == nil || *got.Steps[1].ExitCode != 1 {
		t.Errorf("expected exit code 1 for push, got %v", got.Steps[1].ExitCode)
	}
	if got.Steps[2].ExitCode != nil {
		t.Error("expected nil exit code for skipped step")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "absent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.SaveRun(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
	if len(runs[0].Steps) != 3 {
		t.Errorf("expected steps hydrated on list, got %d", len(runs[0].Steps))
	}
}
