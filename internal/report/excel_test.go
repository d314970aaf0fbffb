package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/skarani/doubler/internal/rank"
	"github.com/skarani/doubler/internal/scoring"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

func ptr(v float64) *float64 { return &v }

func sampleReport() *rank.Report {
	return &rank.Report{
		Horizons: []int{6, 12},
		Candidates: map[int][]rank.Candidate{
			6: {
				{
					HorizonScore: scoring.HorizonScore{
						Symbol:        "RELIANCE",
						HorizonMonths: 6,
						Return:        0.42,
						Volatility:    0.25,
						AvgVolume:     120000,
						Score:         0.335,
					},
					Probability: 1.0,
					StopLoss:    ptr(2350.5),
					TargetPrice: ptr(7500.0),
					Rationale:   "ret=42.00%, vol=0.25, avgVol=120000",
				},
				{
					HorizonScore: scoring.HorizonScore{
						Symbol:        "TCS",
						HorizonMonths: 6,
						Return:        0.10,
						Volatility:    0.30,
						AvgVolume:     90000,
						Score:         0.007,
					},
					Probability: 0.0,
					// estimates unavailable
					Rationale: "ret=10.00%, vol=0.30, avgVol=90000",
				},
			},
			12: {},
		},
		Counts: map[int]int{6: 2, 12: 0},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, NewWriter(testLogger()).Write(sampleReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"6m", "12m"}, f.GetSheetList())

	rows, err := f.GetRows("6m")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two candidates")

	assert.Equal(t, []string{
		"symbol", "prob_est", "return", "volatility", "avg_vol",
		"score", "stop_loss_est", "target_price_est", "reason",
	}, rows[0])

	assert.Equal(t, "RELIANCE", rows[1][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "7500", rows[1][7])
	assert.True(t, strings.HasPrefix(rows[1][8], "ret=42.00%"))

	// unavailable estimates stay blank, the row itself survives
	assert.Equal(t, "TCS", rows[2][0])
	stop, err := f.GetCellValue("6m", "G3")
	require.NoError(t, err)
	assert.Equal(t, "", stop)
}

func TestWriteEmptyHorizonSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, NewWriter(testLogger()).Write(sampleReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("12m")
	require.NoError(t, err)
	require.Len(t, rows, 1, "empty horizon keeps a header-only sheet")
	assert.Equal(t, []string{"symbol"}, rows[0])
}

func TestDefaultFilename(t *testing.T) {
	name := DefaultFilename()
	assert.True(t, strings.HasPrefix(name, "top_stocks_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
}
