package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skarani/doubler/internal/history"
	"github.com/skarani/doubler/internal/scan"
	"github.com/skarani/doubler/internal/secrets"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and provider wiring",
	Long: `Verifies the scanner setup without running a full scan.

This command:
- Loads the configuration from the environment
- Opens the secret store and resolves the provider token
- Reports which history providers are available
- Loads and validates the strategy file
- Optionally fetches one symbol end to end (--probe)

Example:
  go run ./cmd/doubler check
  go run ./cmd/doubler check --probe RELIANCE`,
	RunE: runCheck,
}

var checkProbeSymbol string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkProbeSymbol, "probe", "", "fetch this symbol to verify connectivity")
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Doubler Setup Check ===")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   History: %d years, %d workers\n", cfg.Scan.HistoryYears, cfg.Scan.Workers)
	fmt.Printf("   Output dir: %s\n\n", cfg.Scan.OutputDir)

	log := logger.New(cfg)
	ctx := context.Background()

	// Secret store
	fmt.Println("Opening secret store...")
	store, err := secrets.New(cfg.Secrets, log)
	if err != nil {
		return fmt.Errorf("❌ Failed to open secret store: %w", err)
	}
	defer store.Close()
	if cfg.Secrets.Enabled {
		fmt.Printf("✅ Secret store connected (%s)\n", cfg.Secrets.RedisAddr)
	} else {
		fmt.Println("✅ Secret store disabled, resolving secrets from environment only")
	}

	// Token resolution
	fmt.Println("Resolving primary provider token...")
	token, err := store.Get(ctx, cfg.Dhan.TokenSecret)
	if err != nil {
		return fmt.Errorf("❌ Failed to resolve token %s: %w", cfg.Dhan.TokenSecret, err)
	}
	if token != "" {
		fmt.Printf("✅ Token %s resolved (%s)\n", cfg.Dhan.TokenSecret, maskSecret(token))
		fmt.Printf("   Primary:  Dhan (%s)\n", cfg.Dhan.BaseURL)
	} else {
		fmt.Printf("⚠️  Token %s not set, primary provider disabled\n", cfg.Dhan.TokenSecret)
	}
	fmt.Printf("   Fallback: Yahoo (%s, suffix %q)\n\n", cfg.Yahoo.BaseURL, cfg.Yahoo.DefaultSuffix)

	// Strategy parameters
	fmt.Println("Loading strategy parameters...")
	strategy, err := strategyconfig.LoadOrDefault(cfg.Scan.StrategyFile)
	if err != nil {
		return fmt.Errorf("❌ Failed to load strategy: %w", err)
	}
	fmt.Printf("✅ Strategy valid (horizons %v, top %d)\n\n", strategy.HorizonsMonths, strategy.Report.TopN)

	// Optional end to end probe
	if checkProbeSymbol != "" {
		fmt.Printf("Probing %s...\n", checkProbeSymbol)
		source, err := scan.BuildSource(ctx, cfg, store, log)
		if err != nil {
			return fmt.Errorf("❌ Failed to build history source: %w", err)
		}

		probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		series, err := source.Fetch(probeCtx, checkProbeSymbol)
		if err != nil {
			if errors.Is(err, history.ErrNotAvailable) {
				return fmt.Errorf("❌ No provider returned data for %s: %w", checkProbeSymbol, err)
			}
			return fmt.Errorf("❌ Probe failed: %w", err)
		}

		last := series.Last()
		fmt.Printf("✅ Fetched %d bars, last close %.2f on %s\n",
			len(series.Bars), last.Close, last.Date.Format("2006-01-02"))
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}

// maskSecret hides all but the edges of a secret for display.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
