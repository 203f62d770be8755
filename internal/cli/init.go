package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/ctx/internal/adapters/filesystem"
	"github.com/example/ctx/internal/config"
	"github.com/example/ctx/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize ctx in the current directory",
		Long:  "Create the .ctx state directory with config, database, ledger and the concepts directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conceptsDir, _ := cmd.Flags().GetString("concepts-dir")
			baseline, _ := cmd.Flags().GetString("baseline")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to determine working directory: %w", err)
			}

			cfg := config.DefaultConfig()
			if conceptsDir != "" {
				cfg.ConceptsDir = conceptsDir
			}
			cfg.BaselineConcept = baseline

			if err := config.SaveConfig(cwd, cfg); err != nil {
				return err
			}
			fmt.Printf("✓ Config written to %s\n", filepath.Join(config.StateDir(cwd), "config.json"))

			stateDir := config.StateDir(cwd)
			database, err := db.Open(stateDir)
			if err != nil {
				return err
			}
			defer database.Close()
			fmt.Printf("✓ Database initialized at %s\n", filepath.Join(stateDir, db.FileName))

			if _, err := filesystem.NewLedger(stateDir); err != nil {
				return err
			}
			fmt.Printf("✓ Ledger at %s\n", filepath.Join(stateDir, filesystem.LedgerFileName))

			absConcepts := filepath.Join(cwd, cfg.ConceptsDir)
			if err := os.MkdirAll(absConcepts, 0755); err != nil {
				return fmt.Errorf("failed to create concepts dir: %w", err)
			}
			fmt.Printf("✓ Concepts directory at %s\n", absConcepts)

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Printf("  $EDITOR %s\n", filepath.Join(cfg.ConceptsDir, "overview.md"))
			fmt.Println("  ctx task start \"My first task\" -c overview")
			return nil
		},
	}

	cmd.Flags().String("concepts-dir", "", "concept documents directory (default context/concepts)")
	cmd.Flags().String("baseline", "", "concept implicitly loaded for every task")
	return cmd
}
