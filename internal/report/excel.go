package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/skarani/doubler/internal/rank"
	"github.com/skarani/doubler/pkg/logger"
)

// header is the column layout of every populated horizon sheet.
var header = []interface{}{
	"symbol", "prob_est", "return", "volatility", "avg_vol",
	"score", "stop_loss_est", "target_price_est", "reason",
}

// Writer serializes a horizon report into a workbook, one sheet per horizon.
type Writer struct {
	logger *logger.Logger
}

// NewWriter creates a workbook writer.
func NewWriter(log *logger.Logger) *Writer {
	return &Writer{logger: log.WithField("module", "report")}
}

// DefaultFilename returns the timestamped workbook name for a run.
func DefaultFilename() string {
	return fmt.Sprintf("top_stocks_%d.xlsx", time.Now().Unix())
}

// Write saves the report to path. Horizons with no candidates still get a
// sheet, header-only, so a reader can tell "scanned, nothing qualified"
// from "not scanned".
func (w *Writer) Write(rep *rank.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, h := range rep.Horizons {
		sheet := fmt.Sprintf("%dm", h)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}

		candidates := rep.Candidates[h]
		if len(candidates) == 0 {
			if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"symbol"}); err != nil {
				return fmt.Errorf("write header %s: %w", sheet, err)
			}
			continue
		}

		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header %s: %w", sheet, err)
		}

		for i, c := range candidates {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return fmt.Errorf("row coordinates: %w", err)
			}

			row := []interface{}{
				c.Symbol,
				c.Probability,
				c.Return,
				c.Volatility,
				c.AvgVolume,
				c.Score,
				optional(c.StopLoss),
				optional(c.TargetPrice),
				c.Rationale,
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write row %s!%s: %w", sheet, cell, err)
			}
		}
	}

	// the workbook only carries horizon sheets
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":   path,
		"sheets": len(rep.Horizons),
	}).Info("Report workbook written")

	return nil
}

// optional renders a possibly-unavailable estimate: nil stays an empty cell.
func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
