package main

import (
	"fmt"

	"github.com/cuemby/fringedb/pkg/config"
	"github.com/cuemby/fringedb/pkg/store"
	"github.com/spf13/cobra"
)

var cleanIndexesCmd = &cobra.Command{
	Use:   "clean-indexes",
	Short: "Remove index artifacts whose target store no longer exists",
	Long: `Optionally register directories from a manifest first, then scan
every known index directory (the process-wide registry populated by
RegisterRootType/RegisterIndexDirectory or by -f) and remove artifacts
pointing at a store that is no longer readable. Never walks the
filesystem for directories it wasn't told about.`,
	RunE: runCleanIndexes,
}

func init() {
	cleanIndexesCmd.Flags().StringP("file", "f", "", "manifest YAML file to register before cleaning")
}

func runCleanIndexes(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	if filename != "" {
		m, err := config.Load(filename)
		if err != nil {
			return err
		}
		if err := config.Apply(m); err != nil {
			return fmt.Errorf("failed to apply manifest: %w", err)
		}
	}

	removed, err := store.CleanIndexes()
	if err != nil {
		return fmt.Errorf("clean-indexes failed: %w", err)
	}

	if len(removed) == 0 {
		fmt.Println("No stale index artifacts found")
		return nil
	}
	fmt.Printf("Removed %d stale index artifact(s):\n", len(removed))
	for _, e := range removed {
		fmt.Printf("  %s -> %s\n", e.Value, e.CommitPath)
	}
	return nil
}
