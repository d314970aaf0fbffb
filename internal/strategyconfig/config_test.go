package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8, cfg.HistoryYears)
	assert.Equal(t, []int{6, 12, 18, 24, 48}, cfg.HorizonsMonths)
	assert.Equal(t, 10, cfg.Scoring.MinBars)
	assert.Equal(t, 30000.0, cfg.Scoring.MinAvgVolume)
	assert.Equal(t, 1.0, cfg.Scoring.ReturnWeight)
	assert.Equal(t, 0.5, cfg.Scoring.VolatilityPenalty)
	assert.Equal(t, 0.005, cfg.Scoring.LogVolumeWeight)
	assert.Equal(t, 3.0, cfg.Targets.TargetMultiple)
	assert.Equal(t, 1.5, cfg.Targets.StopATRMultiple)
	assert.Equal(t, 10, cfg.Report.TopN)

	require.NoError(t, Validate(&cfg))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
history_years: 3
horizons_months: [3, 6]
scoring:
  min_avg_volume: 50000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.HistoryYears)
	assert.Equal(t, []int{3, 6}, cfg.HorizonsMonths)
	assert.Equal(t, 50000.0, cfg.Scoring.MinAvgVolume)

	// untouched fields keep the defaults
	assert.Equal(t, 10, cfg.Scoring.MinBars)
	assert.Equal(t, 0.5, cfg.Scoring.VolatilityPenalty)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `
scoring:
  vol_penality: 0.7
`)

	_, err := Load(path)
	require.Error(t, err, "typos must fail loudly")
}

func TestLoadOrDefaultEmptyPath(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero history years", func(c *Config) { c.HistoryYears = 0 }},
		{"no horizons", func(c *Config) { c.HorizonsMonths = nil }},
		{"negative horizon", func(c *Config) { c.HorizonsMonths = []int{6, -1} }},
		{"duplicate horizon", func(c *Config) { c.HorizonsMonths = []int{6, 6} }},
		{"zero min bars", func(c *Config) { c.Scoring.MinBars = 0 }},
		{"negative liquidity gate", func(c *Config) { c.Scoring.MinAvgVolume = -1 }},
		{"zero target multiple", func(c *Config) { c.Targets.TargetMultiple = 0 }},
		{"zero top n", func(c *Config) { c.Report.TopN = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, Validate(&cfg))
		})
	}
}
