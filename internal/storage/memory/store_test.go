package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

func TestSaveGetList(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		err := s.SaveRun(ctx, &runner.RunReport{
			ID:        id,
			Pipeline:  "p",
			Status:    runner.StatusSucceeded,
			Steps:     []runner.StepResult{{Name: "build", Status: runner.StatusSucceeded}},
			StartedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := s.GetRun(ctx, "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "b" || len(got.Steps) != 1 {
		t.Errorf("unexpected run: %+v", got)
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("expected [c b], got %v", runs)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := New()
	if _, err := s.GetRun(context.Background(), "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSave_CopiesReport(t *testing.T) {
	s := New()
	ctx := context.Background()

	report := &runner.RunReport{
		ID:    "a",
		Steps: []runner.StepResult{{Name: "build", Status: runner.StatusSucceeded}},
	}
	if err := s.SaveRun(ctx, report); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's report must not affect the stored copy.
	report.Steps[0].Status = runner.StatusFailed

	got, _ := s.GetRun(ctx, "a")
	if got.Steps[0].Status != runner.StatusSucceeded {
		t.Error("stored report shares memory with the caller's report")
	}
}
