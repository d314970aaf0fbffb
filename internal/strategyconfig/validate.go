package strategyconfig

import "fmt"

// Validate checks structural sanity of a tuning config.
func Validate(cfg *Config) error {
	if cfg.HistoryYears < 1 {
		return fmt.Errorf("history_years must be at least 1, got %d", cfg.HistoryYears)
	}

	if len(cfg.HorizonsMonths) == 0 {
		return fmt.Errorf("horizons_months must not be empty")
	}
	seen := make(map[int]bool, len(cfg.HorizonsMonths))
	for _, h := range cfg.HorizonsMonths {
		if h < 1 {
			return fmt.Errorf("horizons_months entries must be positive, got %d", h)
		}
		if seen[h] {
			return fmt.Errorf("duplicate horizon %d", h)
		}
		seen[h] = true
	}

	if cfg.Scoring.MinBars < 1 {
		return fmt.Errorf("scoring.min_bars must be at least 1, got %d", cfg.Scoring.MinBars)
	}
	if cfg.Scoring.MinAvgVolume < 0 {
		return fmt.Errorf("scoring.min_avg_volume must not be negative")
	}

	if cfg.Targets.TargetMultiple <= 0 {
		return fmt.Errorf("targets.target_multiple must be positive")
	}
	if cfg.Targets.StopATRMultiple < 0 {
		return fmt.Errorf("targets.stop_atr_multiple must not be negative")
	}

	if cfg.Report.TopN < 1 {
		return fmt.Errorf("report.top_n must be at least 1, got %d", cfg.Report.TopN)
	}

	return nil
}
