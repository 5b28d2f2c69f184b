package main

import (
	"fmt"

	"github.com/cuemby/fringedb/pkg/store"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open PATH",
	Short: "Open a store and print its root object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		s, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		root := s.Root()
		fmt.Printf("Store: %s\n", s.CommitPath())
		fmt.Printf("Root UUID: %s\n", root.UUID())
		fmt.Printf("Root Type: %s\n", root.TypeTag())
		fmt.Println("Properties:")
		printProperties(root, 1)
		return nil
	},
}
