package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conveyorci/conveyor/internal/config"
	"github.com/conveyorci/conveyor/internal/event"
	"github.com/conveyorci/conveyor/internal/pipeline"
	"github.com/conveyorci/conveyor/internal/runner"
)

var (
	execEventKind string
	execBranch    string
	execTag       string
	execRef       string
	execRepo      string
)

// NewExecCommand creates the exec command: run one pipeline file locally
// against a synthesized event.
func NewExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <pipeline.yaml>",
		Short: "Run a pipeline file against an event",
		Args:  cobra.ExactArgs(1),
		RunE:  runExec,
	}

	cmd.Flags().StringVar(&execEventKind, "event", "push", "event kind (push|tag|pull_request|cron|custom)")
	cmd.Flags().StringVar(&execBranch, "branch", "", "branch name")
	cmd.Flags().StringVar(&execTag, "tag", "", "tag name")
	cmd.Flags().StringVar(&execRef, "ref", "", "full git ref")
	cmd.Flags().StringVar(&execRepo, "repo", "", "repository slug")

	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p, err := pipeline.Load(args[0])
	if err != nil {
		return err
	}

	kind := event.Kind(execEventKind)
	if !event.ValidKind(kind) {
		return fmt.Errorf("unknown event kind %q", execEventKind)
	}

	executors, err := buildExecutors(cfg)
	if err != nil {
		return err
	}
	secrets, err := buildSecrets(cfg)
	if err != nil {
		return err
	}

	ev := event.Event{
		Kind:   kind,
		Repo:   execRepo,
		Branch: execBranch,
		Tag:    execTag,
		Ref:    execRef,
	}

	report := runner.New(executors, secrets, logger).Run(cmd.Context(), p, ev)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if report.Status == runner.StatusFailed {
		return fmt.Errorf("pipeline %s failed", report.Pipeline)
	}
	return nil
}
