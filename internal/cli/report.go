package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/ctx/internal/wire"
)

// ReportCmd returns the report command group
func ReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect structured task reports",
	}

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportRenderCmd)
	reportCmd.AddCommand(reportTemplatesCmd)
	return reportCmd
}

var reportShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show the structured report for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rep, err := wire.ReportService().GetReport(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Task: %s\n", rep.TaskID)
		fmt.Printf("Status: %s\n", colorStatus(rep.Status))
		fmt.Printf("Template: %s\n", rep.Template)
		fmt.Printf("Generated: %s\n", rep.GeneratedAt)
		fmt.Println()
		fmt.Printf("Summary: %s\n", rep.Summary)
		printSection("Modified artifacts", rep.Artifacts)
		printSection("Issues", rep.Issues)
		printSection("Next steps", rep.NextSteps)
		return nil
	},
}

var reportRenderCmd = &cobra.Command{
	Use:   "render [task-id]",
	Short: "Render a task's report through its template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rendered, err := wire.ReportService().RenderReport(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Print(rendered)
		if !strings.HasSuffix(rendered, "\n") {
			fmt.Println()
		}
		return nil
	},
}

var reportTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available report templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		names, err := wire.ReportService().ListTemplates(ctx)
		if err != nil {
			return err
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func printSection(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
