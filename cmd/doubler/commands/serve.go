package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skarani/doubler/internal/api"
	"github.com/skarani/doubler/internal/api/handlers"
	"github.com/skarani/doubler/internal/scan"
	"github.com/skarani/doubler/internal/secrets"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- Starts the HTTP API server
- Exposes a scan trigger endpoint

Endpoints:
  GET  /health     - Health check
  POST /api/scan   - Run a scan (optional {"symbols": [...]} body)

Example:
  go run ./cmd/doubler serve
  go run ./cmd/doubler serve --port 8087`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Doubler API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if servePort != "" {
		cfg.Port = servePort
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Open the secret store
	store, err := secrets.New(cfg.Secrets, log)
	if err != nil {
		return fmt.Errorf("open secret store: %w", err)
	}
	defer store.Close()

	// 4. Build the history source
	source, err := scan.BuildSource(context.Background(), cfg, store, log)
	if err != nil {
		return fmt.Errorf("build history source: %w", err)
	}

	// 5. Load strategy parameters
	strategy, err := strategyconfig.LoadOrDefault(cfg.Scan.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	// 6. Create the scan service and handler
	svc := scan.NewService(cfg, strategy, source, log)
	scanHandler := handlers.NewScanHandler(svc, cfg.Scan.UniverseFile, log)

	// 7. Create router and server
	router := api.NewRouter(scanHandler, log)
	server := api.New(cfg, log, router)

	// 8. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/scan")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
