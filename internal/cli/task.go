package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/primary"
	"github.com/example/ctx/internal/wire"
)

// TaskCmd returns the task command group
func TaskCmd() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks (agent runs over assembled context)",
		Long:  "Start, fork, resume, and inspect tasks recorded in the ctx ledger",
	}

	taskStartCmd.Flags().StringSliceP("concept", "c", nil, "concept to load (repeatable)")
	taskStartCmd.Flags().String("context", "", "additional free-form context")
	taskStartCmd.Flags().Bool("background", false, "return once the task is running")
	taskStartCmd.Flags().String("template", "", "report template name")
	taskStartCmd.Flags().Bool("allow-missing", false, "proceed when requested concepts are unknown")

	taskForkCmd.Flags().StringSliceP("concept", "c", nil, "additional concept beyond the parent's set (repeatable)")
	taskForkCmd.Flags().String("context", "", "additional free-form context")
	taskForkCmd.Flags().Bool("background", false, "return once the task is running")
	taskForkCmd.Flags().String("template", "", "report template name")

	taskResumeCmd.Flags().String("prompt", "", "follow-up prompt (default derives a continuation)")
	taskResumeCmd.Flags().Bool("background", false, "return once the task is running")

	taskListCmd.Flags().String("status", "", "filter by status")
	taskListCmd.Flags().String("parent", "", "filter by parent task id")
	taskListCmd.Flags().Int("limit", 0, "maximum tasks to show")

	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskForkCmd)
	taskCmd.AddCommand(taskResumeCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskWaitCmd)
	taskCmd.AddCommand(taskCancelCmd)
	taskCmd.AddCommand(taskOutputCmd)
	taskCmd.AddCommand(taskLogCmd)
	return taskCmd
}

var taskStartCmd = &cobra.Command{
	Use:   "start [description]",
	Short: "Start a new task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		concepts, _ := cmd.Flags().GetStringSlice("concept")
		extraContext, _ := cmd.Flags().GetString("context")
		background, _ := cmd.Flags().GetBool("background")
		template, _ := cmd.Flags().GetString("template")
		allowMissing, _ := cmd.Flags().GetBool("allow-missing")

		resp, err := wire.TaskService().StartTask(ctx, primary.StartTaskRequest{
			Description:    args[0],
			Concepts:       concepts,
			Context:        extraContext,
			Background:     background,
			ReportTemplate: template,
			AllowMissing:   allowMissing,
		})
		if err != nil {
			return err
		}

		printTaskOutcome(resp.Task, background)
		return nil
	},
}

var taskForkCmd = &cobra.Command{
	Use:   "fork [parent-id] [description]",
	Short: "Fork a child task inheriting the parent's concepts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		concepts, _ := cmd.Flags().GetStringSlice("concept")
		extraContext, _ := cmd.Flags().GetString("context")
		background, _ := cmd.Flags().GetBool("background")
		template, _ := cmd.Flags().GetString("template")

		resp, err := wire.TaskService().ForkTask(ctx, primary.ForkTaskRequest{
			ParentID:           args[0],
			Description:        args[1],
			AdditionalConcepts: concepts,
			Context:            extraContext,
			Background:         background,
			ReportTemplate:     template,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ Forked from %s\n", resp.Task.ParentID)
		printTaskOutcome(resp.Task, background)
		return nil
	},
}

var taskResumeCmd = &cobra.Command{
	Use:   "resume [task-id]",
	Short: "Resume a task's agent session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		prompt, _ := cmd.Flags().GetString("prompt")
		background, _ := cmd.Flags().GetBool("background")

		resp, err := wire.TaskService().ResumeTask(ctx, primary.ResumeTaskRequest{
			TaskID:     args[0],
			Prompt:     prompt,
			Background: background,
		})
		if err != nil {
			return err
		}

		printTaskOutcome(resp.Task, background)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		task, err := wire.TaskService().GetTask(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Task: %s\n", task.ID)
		fmt.Printf("Description: %s\n", task.Description)
		fmt.Printf("Status: %s\n", colorStatus(task.Status))
		if task.ParentID != "" {
			fmt.Printf("Parent: %s\n", task.ParentID)
		}
		if len(task.Concepts) > 0 {
			fmt.Printf("Concepts: %s\n", strings.Join(task.Concepts, ", "))
		}
		if task.SessionID != "" {
			fmt.Printf("Session: %s\n", task.SessionID)
		}
		if task.OutputPath != "" {
			fmt.Printf("Output: %s\n", task.OutputPath)
		}
		fmt.Printf("Created: %s\n", task.CreatedAt)
		if task.CompletedAt != "" {
			fmt.Printf("Completed: %s\n", task.CompletedAt)
		}
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		status, _ := cmd.Flags().GetString("status")
		parent, _ := cmd.Flags().GetString("parent")
		limit, _ := cmd.Flags().GetInt("limit")

		tasks, err := wire.TaskService().ListTasks(ctx, primary.TaskFilters{
			Status:   status,
			ParentID: parent,
			Limit:    limit,
		})
		if err != nil {
			return err
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("Found %d task(s):\n\n", len(tasks))
		for _, task := range tasks {
			fmt.Printf("%s %s: %s [%s]\n",
				getStatusIcon(task.Status), task.ID, task.Description, colorStatus(task.Status))
			if task.ParentID != "" {
				fmt.Printf("   Parent: %s\n", task.ParentID)
			}
		}
		return nil
	},
}

var taskWaitCmd = &cobra.Command{
	Use:   "wait [task-id]",
	Short: "Block until a task reaches a terminal status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		task, err := wire.TaskService().WaitTask(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s Task %s finished: %s\n", getStatusIcon(task.Status), task.ID, colorStatus(task.Status))
		return nil
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel [task-id]",
	Short: "Terminate a running task's agent process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := wire.TaskService().CancelTask(ctx, args[0]); err != nil {
			return err
		}

		fmt.Printf("✗ Task %s cancelled\n", args[0])
		return nil
	},
}

var taskOutputCmd = &cobra.Command{
	Use:   "output [task-id]",
	Short: "Print a task's captured output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		out, err := wire.TaskService().TaskOutput(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Print(out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Println()
		}
		return nil
	},
}

var taskLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the ledger history, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		entries, err := wire.TaskService().LedgerEntries(ctx)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Ledger is empty.")
			return nil
		}

		for _, e := range entries {
			parent := ""
			if e.ParentID != "" {
				parent = fmt.Sprintf(" (parent %s)", e.ParentID)
			}
			fmt.Printf("%s %s %s%s: %s\n",
				e.Timestamp, e.TaskID, colorStatus(e.Status), parent, e.Description)
		}
		return nil
	},
}

// printTaskOutcome prints the launch result line(s) for start, fork and
// resume.
func printTaskOutcome(task *primary.Task, background bool) {
	if background {
		fmt.Printf("✓ Task %s running in background\n", task.ID)
		fmt.Printf("  ctx task wait %s\n", task.ID)
		return
	}
	fmt.Printf("%s Task %s finished: %s\n", getStatusIcon(task.Status), task.ID, colorStatus(task.Status))
	if task.Status == models.TaskStatusCompleted {
		fmt.Printf("  ctx report show %s\n", task.ID)
	} else {
		fmt.Printf("  ctx task output %s\n", task.ID)
	}
}

// getStatusIcon returns a glyph for a task status
func getStatusIcon(status string) string {
	switch status {
	case models.TaskStatusPending:
		return "○"
	case models.TaskStatusRunning:
		return "◐"
	case models.TaskStatusCompleted:
		return "✓"
	case models.TaskStatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// colorStatus renders a status name in its conventional color.
func colorStatus(status string) string {
	switch status {
	case models.TaskStatusRunning:
		return color.New(color.FgYellow).Sprint(status)
	case models.TaskStatusCompleted:
		return color.New(color.FgGreen).Sprint(status)
	case models.TaskStatusFailed:
		return color.New(color.FgRed).Sprint(status)
	default:
		return status
	}
}
