package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doubler",
	Short: "Doubler - equity upside scanner",
	Long: `Doubler Unified CLI

Scans an equity universe, scores multi-month upside per horizon and
writes a ranked workbook of candidates.

Usage:
  go run ./cmd/doubler [command]

Examples:
  go run ./cmd/doubler scan
  go run ./cmd/doubler scan --universe nifty500.csv
  go run ./cmd/doubler serve
  go run ./cmd/doubler scheduler start
  go run ./cmd/doubler check`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
