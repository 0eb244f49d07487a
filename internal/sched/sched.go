// Package sched fires cron-triggered pipeline runs. Pipelines opt in by
// declaring a cron expression in their document; everything else flows
// through the same runner and storage as webhook-triggered runs.
package sched

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/conveyorci/conveyor/internal/event"
	"github.com/conveyorci/conveyor/internal/pipeline"
	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

// Scheduler owns the cron loop. Entries fire with a cron event whose
// branch is empty; pipelines gated on branch or tag simply skip.
type Scheduler struct {
	cron   *cron.Cron
	runner *runner.Runner
	store  storage.RunStore
	logger *slog.Logger
}

// New creates a stopped scheduler.
func New(r *runner.Runner, store storage.RunStore, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		runner: r,
		store:  store,
		logger: logger,
	}
}

// Add registers a pipeline's cron trigger. Pipelines without one are
// ignored. An invalid expression is a configuration error surfaced at
// startup, not at fire time.
func (s *Scheduler) Add(p *pipeline.Pipeline) error {
	if p.Cron == "" {
		return nil
	}

	_, err := s.cron.AddFunc(p.Cron, func() {
		ev := event.Event{Kind: event.KindCron}
		report := s.runner.Run(context.Background(), p, ev)
		if err := s.store.SaveRun(context.Background(), report); err != nil {
			s.logger.Error("failed to persist cron run report",
				slog.String("pipeline", p.Name),
				slog.String("run_id", report.ID),
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return &pipeline.ConfigError{Field: "cron", Reason: err.Error()}
	}

	s.logger.Info("cron trigger registered",
		slog.String("pipeline", p.Name),
		slog.String("expression", p.Cron))
	return nil
}

// Start begins firing entries in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
