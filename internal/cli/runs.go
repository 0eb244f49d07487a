package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conveyorci/conveyor/internal/config"
)

var runsLimit int

// NewRunsCommand creates the runs command: query stored run reports.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show stored run reports",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRuns,
	}

	cmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(args) == 1 {
		run, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return enc.Encode(run)
	}

	runs, err := store.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	return enc.Encode(runs)
}
