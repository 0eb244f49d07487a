// Package runner executes a loaded pipeline against a single event. Steps
// run strictly one at a time in declaration order; a step whose condition
// does not match is recorded as skipped and never invoked, and the first
// non-ignored failure halts everything after it.
package runner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/conveyorci/conveyor/internal/event"
	"github.com/conveyorci/conveyor/internal/executor"
	"github.com/conveyorci/conveyor/internal/pipeline"
	"github.com/conveyorci/conveyor/internal/secret"
)

const tracerName = "github.com/conveyorci/conveyor/internal/runner"

// Runner drives one pipeline through one event. It holds no mutable state
// between runs; everything a run needs travels in explicitly.
type Runner struct {
	executors *executor.Registry
	secrets   secret.Provider
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a runner. The secret provider may be nil when documents are
// known to carry no secret references; resolution then always fails.
func New(executors *executor.Registry, secrets secret.Provider, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		executors: executors,
		secrets:   secrets,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Run executes the pipeline and returns its report. The report always
// contains one entry per declared step unless the pipeline trigger itself
// did not match, in which case no steps appear at all.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline, ev event.Event) *RunReport {
	ev = ev.Normalize()

	report := &RunReport{
		ID:        uuid.New().String(),
		Pipeline:  p.Name,
		Event:     ev,
		StartedAt: time.Now().UTC(),
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("pipeline.name", p.Name),
			attribute.String("pipeline.run_id", report.ID),
			attribute.String("event.kind", string(ev.Kind)),
			attribute.String("event.ref", ev.Ref),
		))
	defer span.End()

	log := r.logger.With(
		slog.String("pipeline", p.Name),
		slog.String("run_id", report.ID),
	)

	if !p.Trigger.Match(ev) {
		report.Status = StatusSkipped
		report.FinishedAt = time.Now().UTC()
		log.Info("pipeline skipped, trigger did not match",
			slog.String("ref", ev.Ref),
			slog.String("event", string(ev.Kind)))
		return report
	}

	log.Info("pipeline started", slog.String("event", string(ev.Kind)), slog.String("ref", ev.Ref))

	halted := false
	failed := false
	for _, step := range p.Steps {
		switch {
		case halted:
			report.Steps = append(report.Steps, StepResult{Name: step.Name, Status: StatusSkipped})
		case !step.Condition.Match(ev):
			report.Steps = append(report.Steps, StepResult{Name: step.Name, Status: StatusSkipped})
			log.Debug("step skipped", slog.String("step", step.Name))
		default:
			res := r.runStep(ctx, log, step)
			report.Steps = append(report.Steps, res)
			if res.Status == StatusFailed && !step.IgnoreFailure {
				failed = true
				halted = true
			}
		}
	}

	if failed {
		report.Status = StatusFailed
		span.SetStatus(codes.Error, "pipeline failed")
	} else {
		report.Status = StatusSucceeded
	}
	report.FinishedAt = time.Now().UTC()

	log.Info("pipeline finished",
		slog.String("status", string(report.Status)),
		slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report
}

// runStep resolves secrets, invokes the step's executor, and records the
// outcome. Secret values are masked from everything that leaves here.
func (r *Runner) runStep(ctx context.Context, log *slog.Logger, step pipeline.Step) StepResult {
	ctx, span := r.tracer.Start(ctx, "pipeline.step",
		trace.WithAttributes(
			attribute.String("step.name", step.Name),
			attribute.String("step.image", step.Image),
		))
	defer span.End()

	result := StepResult{Name: step.Name}

	settings, secrets, err := r.resolveSettings(step)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		span.SetStatus(codes.Error, "secret resolution failed")
		log.Error("step failed before invocation",
			slog.String("step", step.Name),
			slog.String("error", err.Error()))
		return result
	}

	exec, err := r.executors.ForImage(step.Image)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		span.SetStatus(codes.Error, "no executor")
		log.Error("step failed, no executor for image",
			slog.String("step", step.Name),
			slog.String("image", step.Image))
		return result
	}

	log.Info("step started", slog.String("step", step.Name), slog.String("image", step.Image))

	res, execErr := exec.Execute(ctx, executor.Spec{
		StepName: step.Name,
		Image:    step.Image,
		Commands: step.Commands,
		Settings: settings,
		Secrets:  secrets,
	})

	output := res.Stdout
	if res.Stderr != "" {
		output += res.Stderr
	}
	result.Output = redact(output, secrets)

	if execErr != nil {
		result.Status = StatusFailed
		result.Error = redact(execErr.Error(), secrets)
		span.SetStatus(codes.Error, "executor error")
		log.Error("step failed", slog.String("step", step.Name), slog.String("error", result.Error))
		return result
	}

	exitCode := res.ExitCode
	result.ExitCode = &exitCode
	if exitCode != 0 {
		result.Status = StatusFailed
		span.SetStatus(codes.Error, "nonzero exit")
		log.Error("step failed", slog.String("step", step.Name), slog.Int("exit_code", exitCode))
		return result
	}

	result.Status = StatusSucceeded
	log.Info("step succeeded", slog.String("step", step.Name))
	return result
}

// resolveSettings splits a step's settings into literals and resolved
// secret values. Resolution happens here, immediately before invocation,
// so secrets are scoped to the step that declared them.
func (r *Runner) resolveSettings(step pipeline.Step) (map[string]any, map[string]string, error) {
	var settings map[string]any
	var secrets map[string]string

	for name, s := range step.Settings {
		if !s.IsSecret() {
			if settings == nil {
				settings = make(map[string]any)
			}
			settings[name] = s.Literal
			continue
		}
		if r.secrets == nil {
			return nil, nil, &secret.NotFoundError{Name: s.FromSecret}
		}
		value, err := r.secrets.Resolve(s.FromSecret)
		if err != nil {
			return nil, nil, err
		}
		if secrets == nil {
			secrets = make(map[string]string)
		}
		secrets[name] = value
	}
	return settings, secrets, nil
}

// redact masks resolved secret values in captured output.
func redact(s string, secrets map[string]string) string {
	for _, v := range secrets {
		if v == "" {
			continue
		}
		s = strings.ReplaceAll(s, v, "******")
	}
	return s
}
