// Package cli implements the conveyor command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// NewRootCommand builds the conveyor command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "conveyor",
		Short: "Conveyor is a conditional, ordered pipeline runner",
		Long: `Conveyor loads declarative pipeline documents, evaluates their
trigger predicates against events (pushes, tags, cron fires), and executes
matching steps in order through external executors.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to runner config file")

	root.AddCommand(NewExecCommand())
	root.AddCommand(NewLintCommand())
	root.AddCommand(NewServerCommand())
	root.AddCommand(NewRunsCommand())

	return root
}

// newLogger builds the process-wide structured logger.
func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
