package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skarani/doubler/pkg/logger"
)

// defaultSymbols is the built-in large-cap sample universe, used when no
// universe file is supplied.
var defaultSymbols = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
	"HINDUNILVR", "KOTAKBANK", "SBIN", "BAJFINANCE", "LT",
}

// autoloadFile is picked up from the working directory when present.
const autoloadFile = "nifty500.csv"

// Default returns a copy of the built-in sample universe.
func Default() []string {
	return append([]string(nil), defaultSymbols...)
}

// Read parses a universe CSV. The column named "symbol" (case-insensitive)
// is used when the header declares one; otherwise the first column is.
// Symbols are opaque identifiers; no validation beyond trimming.
func Read(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse universe csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("universe csv is empty")
	}

	col := 0
	start := 0
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "symbol") {
			col = i
			start = 1
			break
		}
	}

	symbols := make([]string, 0, len(records)-start)
	for _, rec := range records[start:] {
		if col >= len(rec) {
			continue
		}
		sym := strings.TrimSpace(rec[col])
		if sym == "" {
			continue
		}
		symbols = append(symbols, sym)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe csv has no symbols")
	}
	return symbols, nil
}

// LoadFile reads a universe CSV from disk.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Load resolves the universe: explicit file, then the conventional
// nifty500.csv in the working directory, then the built-in sample.
func Load(path string, log *logger.Logger) ([]string, error) {
	if path != "" {
		return LoadFile(path)
	}

	if _, err := os.Stat(autoloadFile); err == nil {
		symbols, err := LoadFile(autoloadFile)
		if err == nil {
			log.WithFields(map[string]interface{}{
				"file":    autoloadFile,
				"symbols": len(symbols),
			}).Info("Loaded universe file")
			return symbols, nil
		}
		log.WithError(err).Warn("Ignoring unreadable universe file")
	}

	log.WithField("symbols", len(defaultSymbols)).Info("Using built-in sample universe")
	return Default(), nil
}
