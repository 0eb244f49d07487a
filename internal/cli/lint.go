package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conveyorci/conveyor/internal/pipeline"
)

// NewLintCommand creates the lint command: validate pipeline documents
// without executing anything.
func NewLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <pipeline.yaml>...",
		Short: "Validate pipeline documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed bool
			for _, path := range args {
				p, err := pipeline.Load(path)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, %d steps)\n", path, p.Name, len(p.Steps))
			}
			if failed {
				return fmt.Errorf("lint failed")
			}
			return nil
		},
	}
}
