// Package storage defines persistence for run reports. Implementations
// live in subpackages; the runner itself never touches storage, only the
// host surfaces (server, CLI) do.
package storage

import (
	"context"
	"errors"

	"github.com/conveyorci/conveyor/internal/runner"
)

// ErrNotFound is returned when no run exists for the requested ID.
var ErrNotFound = errors.New("run not found")

// RunStore persists and retrieves run reports.
type RunStore interface {
	// SaveRun persists a completed run report.
	SaveRun(ctx context.Context, report *runner.RunReport) error

	// GetRun retrieves a run report by ID. Returns ErrNotFound when absent.
	GetRun(ctx context.Context, id string) (*runner.RunReport, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	// A non-positive limit applies a default.
	ListRuns(ctx context.Context, limit int) ([]*runner.RunReport, error)

	// Close releases any underlying resources.
	Close() error
}
