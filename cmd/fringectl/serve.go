package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/fringedb/pkg/config"
	"github.com/cuemby/fringedb/pkg/metrics"
	"github.com/cuemby/fringedb/pkg/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a monitoring sidecar: /metrics, /health, /ready, /live, and periodic clean-indexes",
	Long: `serve registers the store and index registries for health
checking, serves Prometheus metrics plus health/readiness/liveness
endpoints, and periodically runs the same cleanup as clean-indexes in
the background. It never opens or touches individual stores directly
— a long-running process that merely observes the registries and
answers probes, the way a sidecar would.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("file", "f", "", "manifest YAML file to register before serving")
	serveCmd.Flags().String("addr", "127.0.0.1:9090", "address to serve /metrics and health endpoints on")
	serveCmd.Flags().Duration("clean-interval", 5*time.Minute, "how often to run clean-indexes in the background")
}

func runServe(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	addr, _ := cmd.Flags().GetString("addr")
	interval, _ := cmd.Flags().GetDuration("clean-interval")

	if filename != "" {
		m, err := config.Load(filename)
		if err != nil {
			return err
		}
		if err := config.Apply(m); err != nil {
			return fmt.Errorf("failed to apply manifest: %w", err)
		}
	}

	metrics.SetVersion(Version)
	metrics.RegisterComponent("store-registry", true, "watching")
	metrics.RegisterComponent("index-registry", true, "watching")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	errCh := make(chan error, 1)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			errCh <- fmt.Errorf("metrics server error: %w", err)
		}
	}()
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", addr)
	fmt.Printf("✓ Health endpoints:\n")
	fmt.Printf("  - Health check: http://%s/health\n", addr)
	fmt.Printf("  - Readiness:    http://%s/ready\n", addr)
	fmt.Printf("  - Liveness:     http://%s/live\n", addr)

	stop := make(chan struct{})
	go runCleanLoop(interval, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		close(stop)
		return err
	}
	close(stop)
	return nil
}

func runCleanLoop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := store.CleanIndexes(); err != nil {
				metrics.UpdateComponent("index-registry", false, err.Error())
				continue
			}
			metrics.UpdateComponent("index-registry", true, "watching")
		case <-stop:
			return
		}
	}
}
