package main

import (
	"fmt"
	"os"

	"github.com/cuemby/fringedb/pkg/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fringectl",
	Short: "Operator tooling for fringedb stores and index directories",
	Long: `fringectl inspects and manages fringedb stores: opening a store to
print its root object, dumping its full reachable graph, registering
root types and index directories from a manifest, running maintenance
operations like clean-indexes and gc, and serving health/metrics
endpoints for a monitoring sidecar via serve.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"fringectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(cleanIndexesCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
