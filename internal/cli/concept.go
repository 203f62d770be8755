package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/ctx/internal/wire"
)

// ConceptCmd returns the concept command group
func ConceptCmd() *cobra.Command {
	conceptCmd := &cobra.Command{
		Use:   "concept",
		Short: "Manage concept documents (reusable context units)",
		Long:  "List, inspect, resolve, and validate the concept documents loaded into tasks",
	}

	conceptCmd.AddCommand(conceptListCmd)
	conceptCmd.AddCommand(conceptShowCmd)
	conceptCmd.AddCommand(conceptResolveCmd)
	conceptCmd.AddCommand(conceptAssembleCmd)
	conceptCmd.AddCommand(conceptValidateCmd)
	conceptCmd.AddCommand(conceptStatsCmd)
	return conceptCmd
}

var conceptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List concepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summaries, err := wire.ConceptService().ListConcepts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list concepts: %w", err)
		}

		if len(summaries) == 0 {
			fmt.Println("No concepts found.")
			return nil
		}

		fmt.Printf("Found %d concept(s):\n\n", len(summaries))
		for _, c := range summaries {
			fmt.Printf("  %s (%d refs, %d bytes)\n", c.Name, c.References, c.Size)
		}
		return nil
	},
}

var conceptShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a concept's references and body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		detail, err := wire.ConceptService().GetConcept(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Concept: %s\n", detail.Name)
		if len(detail.References) > 0 {
			fmt.Printf("References: %s\n", strings.Join(detail.References, ", "))
		}
		fmt.Printf("Size: %d bytes\n", detail.Size)
		fmt.Println()
		fmt.Println(detail.Body)
		return nil
	},
}

var conceptResolveCmd = &cobra.Command{
	Use:   "resolve [name...]",
	Short: "Show the dependency-ordered closure of the named concepts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		res, err := wire.ConceptService().ResolveConcepts(ctx, args)
		if err != nil {
			return err
		}

		fmt.Printf("Load order (%d):\n", len(res.Order))
		for i, name := range res.Order {
			fmt.Printf("  %d. %s\n", i+1, name)
		}
		if len(res.Missing) > 0 {
			fmt.Printf("\nMissing: %s\n", strings.Join(res.Missing, ", "))
		}
		return nil
	},
}

var conceptAssembleCmd = &cobra.Command{
	Use:   "assemble [name...]",
	Short: "Print the assembled context payload for the named concepts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		payload, err := wire.ConceptService().AssembleContext(ctx, args)
		if err != nil {
			return err
		}

		fmt.Print(payload.Payload)
		if len(payload.Missing) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: missing concepts: %s\n",
				strings.Join(payload.Missing, ", "))
		}
		return nil
	},
}

var conceptValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report references that point at absent concepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		issues, err := wire.ConceptService().ValidateReferences(ctx)
		if err != nil {
			return fmt.Errorf("failed to validate concepts: %w", err)
		}

		if len(issues) == 0 {
			fmt.Println("✓ All references resolve")
			return nil
		}

		fmt.Printf("%d concept(s) with unresolved references:\n\n", len(issues))
		for name, missing := range issues {
			fmt.Printf("  %s -> %s\n", name, strings.Join(missing, ", "))
		}
		return nil
	},
}

var conceptStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection-level statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		stats, err := wire.ConceptService().Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}

		fmt.Printf("Concepts: %d\n", stats.Total)
		fmt.Printf("Total size: %d bytes\n", stats.TotalSize)
		fmt.Printf("Average size: %d bytes\n", stats.AverageSize)
		fmt.Printf("References: %d\n", stats.TotalReferences)
		if stats.ValidationIssues > 0 {
			fmt.Printf("Concepts with unresolved references: %d\n", stats.ValidationIssues)
		}
		return nil
	},
}
