package scan

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/skarani/doubler/internal/history"
	"github.com/skarani/doubler/internal/rank"
	"github.com/skarani/doubler/internal/report"
	"github.com/skarani/doubler/internal/secrets"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/httputil"
	"github.com/skarani/doubler/pkg/logger"
)

// Service runs complete scan batches: rank the universe, write the workbook.
// Every invocation is a full recomputation; nothing survives between runs.
type Service struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	ranker   *rank.Ranker
	writer   *report.Writer
	logger   *logger.Logger
}

// Result is the outcome of one scan run.
type Result struct {
	Report     *rank.Report `json:"report"`
	OutputPath string       `json:"output_path"`
}

// NewService assembles a scan service around an already-built history source.
func NewService(cfg *config.Config, strategy *strategyconfig.Config, source rank.HistorySource, log *logger.Logger) *Service {
	return &Service{
		cfg:      cfg,
		strategy: strategy,
		ranker:   rank.NewRanker(source, strategy, cfg.Scan.Workers, log),
		writer:   report.NewWriter(log),
		logger:   log.WithField("module", "scan"),
	}
}

// BuildSource resolves provider credentials and wires the two-stage history
// source. A secret-store failure here is fatal; a merely missing primary
// token just degrades the source to fallback-only.
func BuildSource(ctx context.Context, cfg *config.Config, store *secrets.Store, log *logger.Logger) (*history.Source, error) {
	token, err := store.Get(ctx, cfg.Dhan.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("resolve primary provider token: %w", err)
	}

	var primary history.Provider
	if token != "" {
		primary = history.NewDhanClient(cfg.Dhan, token, httputil.New(log), log)
	} else {
		log.Warn("No primary provider token, scanning with fallback provider only")
	}

	fallback := history.NewYahooClient(cfg.Yahoo, httputil.New(log).DisableRetry(), log)

	return history.NewSource(primary, fallback, cfg.Scan.HistoryYears, log), nil
}

// Run scans the given universe and writes the workbook into the configured
// output directory.
func (s *Service) Run(ctx context.Context, symbols []string) (*Result, error) {
	rep, err := s.ranker.Rank(ctx, symbols)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.cfg.Scan.OutputDir, report.DefaultFilename())
	if err := s.writer.Write(rep, path); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"output": path,
		"counts": rep.Counts,
	}).Info("Scan run finished")

	return &Result{Report: rep, OutputPath: path}, nil
}
