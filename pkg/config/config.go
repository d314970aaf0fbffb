package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data providers
	Dhan  DhanConfig
	Yahoo YahooConfig

	// Secret store
	Secrets SecretsConfig

	// Scan defaults
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DhanConfig holds the primary (credentialed) market-data provider configuration.
type DhanConfig struct {
	BaseURL     string
	TokenSecret string // secret name resolved through the secret store
	RateLimit   int    // requests per second
}

// YahooConfig holds the fallback provider configuration.
type YahooConfig struct {
	BaseURL       string
	DefaultSuffix string // appended when a symbol has no exchange qualifier
}

// SecretsConfig holds the remote key-value secret document configuration.
type SecretsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DocKey        string
	Enabled       bool
}

// ScanConfig holds default scan parameters.
type ScanConfig struct {
	HistoryYears int
	Workers      int
	OutputDir    string
	UniverseFile string
	StrategyFile string
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		Dhan: DhanConfig{
			BaseURL:     getEnv("DHAN_BASE_URL", "https://api.dhan.co/v1"),
			TokenSecret: getEnv("DHAN_TOKEN_SECRET", "DHAN_TOKEN"),
			RateLimit:   getEnvAsInt("DHAN_RATE_LIMIT", 5),
		},

		Yahoo: YahooConfig{
			BaseURL:       getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			DefaultSuffix: getEnv("YAHOO_DEFAULT_SUFFIX", ".NS"),
		},

		Secrets: SecretsConfig{
			RedisAddr:     getEnv("SECRETS_REDIS_ADDR", ""),
			RedisPassword: getEnv("SECRETS_REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("SECRETS_REDIS_DB", 0),
			DocKey:        getEnv("SECRETS_DOC_KEY", "doubler:config:keys"),
			Enabled:       getEnvAsBool("SECRETS_REDIS_ENABLED", false),
		},

		Scan: ScanConfig{
			HistoryYears: getEnvAsInt("SCAN_HISTORY_YEARS", 8),
			Workers:      getEnvAsInt("SCAN_WORKERS", 1),
			OutputDir:    getEnv("SCAN_OUTPUT_DIR", "."),
			UniverseFile: getEnv("SCAN_UNIVERSE_FILE", ""),
			StrategyFile: getEnv("SCAN_STRATEGY_FILE", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are sane
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.HistoryYears < 1 {
		return fmt.Errorf("SCAN_HISTORY_YEARS must be at least 1")
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1")
	}

	if c.Secrets.Enabled && c.Secrets.RedisAddr == "" {
		return fmt.Errorf("SECRETS_REDIS_ADDR is required when the secret store is enabled")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
