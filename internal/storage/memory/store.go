// Package memory provides an in-memory RunStore for tests and for hosts
// that do not need run history to survive restarts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

const defaultListLimit = 50

// Store keeps run reports in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*runner.RunReport
}

var _ storage.RunStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]*runner.RunReport)}
}

func (s *Store) SaveRun(_ context.Context, report *runner.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *report
	cp.Steps = append([]runner.StepResult(nil), report.Steps...)
	s.runs[report.ID] = &cp
	return nil
}

func (s *Store) GetRun(_ context.Context, id string) (*runner.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	cp.Steps = append([]runner.StepResult(nil), r.Steps...)
	return &cp, nil
}

func (s *Store) ListRuns(_ context.Context, limit int) ([]*runner.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	out := make([]*runner.RunReport, 0, len(s.runs))
	for _, r := range s.runs {
		cp := *r
		cp.Steps = append([]runner.StepResult(nil), r.Steps...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
