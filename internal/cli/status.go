package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a rollup of tasks and concepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			taskStats, err := wire.TaskService().Stats(ctx)
			if err != nil {
				return err
			}
			conceptStats, err := wire.ConceptService().Stats(ctx)
			if err != nil {
				return err
			}

			total := 0
			for _, n := range taskStats {
				total += n
			}
			fmt.Printf("Tasks: %d\n", total)
			for _, status := range []string{
				models.TaskStatusPending,
				models.TaskStatusRunning,
				models.TaskStatusCompleted,
				models.TaskStatusFailed,
			} {
				if n := taskStats[status]; n > 0 {
					fmt.Printf("  %s %s: %d\n", getStatusIcon(status), status, n)
				}
			}

			fmt.Printf("Concepts: %d (%d bytes)\n", conceptStats.Total, conceptStats.TotalSize)
			if conceptStats.ValidationIssues > 0 {
				fmt.Printf("  ⚠ %d concept(s) with unresolved references — run ctx concept validate\n",
					conceptStats.ValidationIssues)
			}
			return nil
		},
	}
}
