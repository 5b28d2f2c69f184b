package main

import (
	"fmt"

	"github.com/cuemby/fringedb/pkg/store"
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc PATH",
	Short: "Delete a store: its data file, sidecar, and index artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		s, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		if err := s.Delete(); err != nil {
			return fmt.Errorf("failed to delete store: %w", err)
		}

		fmt.Printf("✓ store at %s deleted\n", path)
		return nil
	},
}
