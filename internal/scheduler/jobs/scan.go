package jobs

import (
	"context"
	"fmt"

	"github.com/skarani/doubler/internal/scan"
	"github.com/skarani/doubler/internal/universe"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

// ScanJob runs the full upside scan after the trading day closes and
// leaves the workbook in the configured output directory.
type ScanJob struct {
	service *scan.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewScanJob creates a daily scan job.
func NewScanJob(service *scan.Service, cfg *config.Config, log *logger.Logger) *ScanJob {
	return &ScanJob{
		service: service,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name.
func (j *ScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the cron schedule (6:30 PM IST on weekdays, after
// the NSE close and end-of-day data publication).
func (j *ScanJob) Schedule() string {
	return "0 30 18 * * MON-FRI"
}

// Run executes the scan over the configured universe.
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	symbols, err := universe.Load(j.config.Scan.UniverseFile, j.logger)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	result, err := j.service.Run(ctx, symbols)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"output":  result.OutputPath,
	}).Info("Scheduled scan completed successfully")

	return nil
}
