package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skarani/doubler/internal/scan"
	"github.com/skarani/doubler/internal/secrets"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/internal/universe"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full upside scan",
	Long: `Runs the scan pipeline over the symbol universe.

This command:
- Loads the universe (flag, nifty500.csv, or built-in default)
- Fetches daily history for every symbol
- Scores each horizon and ranks the top candidates
- Writes a multi-sheet workbook, one sheet per horizon

Example:
  go run ./cmd/doubler scan
  go run ./cmd/doubler scan --universe nifty500.csv --out ./reports
  go run ./cmd/doubler scan --symbols RELIANCE,TCS,INFY`,
	RunE: runScan,
}

var (
	scanUniverseFile string
	scanOutputDir    string
	scanStrategyFile string
	scanWorkers      int
	scanSymbols      string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanUniverseFile, "universe", "", "CSV file with the symbol universe")
	scanCmd.Flags().StringVar(&scanOutputDir, "out", "", "output directory for the workbook")
	scanCmd.Flags().StringVar(&scanStrategyFile, "strategy", "", "YAML strategy overrides")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent symbol fetches")
	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "comma-separated symbols, overrides the universe")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Doubler Scan ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flag overrides
	if scanUniverseFile != "" {
		cfg.Scan.UniverseFile = scanUniverseFile
	}
	if scanOutputDir != "" {
		cfg.Scan.OutputDir = scanOutputDir
	}
	if scanStrategyFile != "" {
		cfg.Scan.StrategyFile = scanStrategyFile
	}
	if scanWorkers > 0 {
		cfg.Scan.Workers = scanWorkers
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Open the secret store
	store, err := secrets.New(cfg.Secrets, log)
	if err != nil {
		return fmt.Errorf("open secret store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	// 4. Build the history source (primary + fallback)
	source, err := scan.BuildSource(ctx, cfg, store, log)
	if err != nil {
		return fmt.Errorf("build history source: %w", err)
	}

	// 5. Load strategy parameters
	strategy, err := strategyconfig.LoadOrDefault(cfg.Scan.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	// 6. Resolve the universe
	var symbols []string
	if scanSymbols != "" {
		for _, s := range strings.Split(scanSymbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	} else {
		symbols, err = universe.Load(cfg.Scan.UniverseFile, log)
		if err != nil {
			return fmt.Errorf("load universe: %w", err)
		}
	}

	fmt.Printf("Scanning %d symbols across horizons %v\n\n", len(symbols), strategy.HorizonsMonths)

	// 7. Run the scan
	svc := scan.NewService(cfg, strategy, source, log)
	result, err := svc.Run(ctx, symbols)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	// 8. Print summary
	fmt.Println("✅ Scan completed")
	fmt.Println("\nCandidates per horizon:")
	horizons := append([]int(nil), result.Report.Horizons...)
	sort.Ints(horizons)
	for _, h := range horizons {
		fmt.Printf("  %3dm: %d\n", h, result.Report.Counts[h])
	}
	fmt.Printf("\nWorkbook: %s\n", result.OutputPath)

	return nil
}
