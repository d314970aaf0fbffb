package strategyconfig

// Config holds the tunable parameters of one scan run. Defaults reproduce
// the published behavior; overrides come from a YAML file.
type Config struct {
	// Lookback window of raw history to fetch, in years
	HistoryYears int `yaml:"history_years" json:"history_years"`

	// Forward-looking horizons to score, in months
	HorizonsMonths []int `yaml:"horizons_months" json:"horizons_months"`

	Scoring Scoring `yaml:"scoring" json:"scoring"`
	Targets Targets `yaml:"targets" json:"targets"`
	Report  Report  `yaml:"report" json:"report"`
}

// Scoring holds per-horizon scoring gates and composite weights.
type Scoring struct {
	// Minimum bars inside a horizon window for the symbol to qualify
	MinBars int `yaml:"min_bars" json:"min_bars"`

	// Hard liquidity gate: minimum average daily volume over the window
	MinAvgVolume float64 `yaml:"min_avg_volume" json:"min_avg_volume"`

	// Composite score weights. Changing these changes every ranking.
	ReturnWeight      float64 `yaml:"return_weight" json:"return_weight"`
	VolatilityPenalty float64 `yaml:"volatility_penalty" json:"volatility_penalty"`
	LogVolumeWeight   float64 `yaml:"log_volume_weight" json:"log_volume_weight"`
}

// Targets holds target-price and stop-loss estimation parameters.
type Targets struct {
	// Target price = latest close x TargetMultiple
	TargetMultiple float64 `yaml:"target_multiple" json:"target_multiple"`

	// Stop loss = latest close - StopATRMultiple x latest ATR
	StopATRMultiple float64 `yaml:"stop_atr_multiple" json:"stop_atr_multiple"`
}

// Report holds report shaping parameters.
type Report struct {
	// Candidates retained per horizon
	TopN int `yaml:"top_n" json:"top_n"`
}

// Default returns the reference tuning.
func Default() Config {
	return Config{
		HistoryYears:   8,
		HorizonsMonths: []int{6, 12, 18, 24, 48},
		Scoring: Scoring{
			MinBars:           10,
			MinAvgVolume:      30000,
			ReturnWeight:      1.0,
			VolatilityPenalty: 0.5,
			LogVolumeWeight:   0.005,
		},
		Targets: Targets{
			TargetMultiple:  3.0,
			StopATRMultiple: 1.5,
		},
		Report: Report{
			TopN: 10,
		},
	}
}
