package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/conveyorci/conveyor/internal/config"
	"github.com/conveyorci/conveyor/internal/pipeline"
	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/sched"
	"github.com/conveyorci/conveyor/internal/server"
	"github.com/conveyorci/conveyor/internal/telemetry"
)

// NewServerCommand creates the server command: host the webhook endpoint,
// the runs API, and the cron scheduler.
func NewServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Serve webhook-triggered pipeline runs",
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdown, err := telemetry.InitTracer("conveyor", logger)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	if len(cfg.Pipelines.Files) == 0 {
		return fmt.Errorf("no pipeline files configured")
	}
	pipelines := make([]*pipeline.Pipeline, 0, len(cfg.Pipelines.Files))
	for _, path := range cfg.Pipelines.Files {
		p, err := pipeline.Load(path)
		if err != nil {
			return fmt.Errorf("load pipeline %s: %w", path, err)
		}
		pipelines = append(pipelines, p)
		logger.Info("pipeline loaded",
			slog.String("path", path),
			slog.String("name", p.Name),
			slog.Int("steps", len(p.Steps)))
	}

	executors, err := buildExecutors(cfg)
	if err != nil {
		return err
	}
	secrets, err := buildSecrets(cfg)
	if err != nil {
		return err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run := runner.New(executors, secrets, logger)

	scheduler := sched.New(run, store, logger)
	for _, p := range pipelines {
		if err := scheduler.Add(p); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.Name, err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	return server.New(cfg.Server.Port, logger, run, store, pipelines).Start()
}
