package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/skarani/doubler/internal/rank"
	"github.com/skarani/doubler/internal/scan"
	"github.com/skarani/doubler/internal/universe"
	"github.com/skarani/doubler/pkg/logger"
)

// ScanHandler exposes scan runs over HTTP. Runs stay synchronous: this
// is a batch research tool and the caller waits for the workbook.
type ScanHandler struct {
	service      *scan.Service
	universePath string
	logger       *logger.Logger
}

// NewScanHandler creates a scan handler.
func NewScanHandler(service *scan.Service, universePath string, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service:      service,
		universePath: universePath,
		logger:       log.WithField("module", "api"),
	}
}

// ScanRequest optionally overrides the universe for one run.
type ScanRequest struct {
	Symbols []string `json:"symbols"` // Optional: scan these instead of the configured universe
}

// ScanResponse represents a completed scan run.
type ScanResponse struct {
	Status     string       `json:"status"`
	Symbols    int          `json:"symbols"`
	Counts     map[int]int  `json:"counts"`
	OutputPath string       `json:"output_path"`
	Report     *rank.Report `json:"report"`
}

// Run executes a full scan
// POST /api/scan
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request (empty body means configured universe)
	var req ScanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		loaded, err := universe.Load(h.universePath, h.logger)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load universe")
			respondError(w, http.StatusInternalServerError, "Failed to load universe")
			return
		}
		symbols = loaded
	}

	result, err := h.service.Run(ctx, symbols)
	if err != nil {
		h.logger.WithError(err).Error("Scan run failed")
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	respondJSON(w, http.StatusOK, ScanResponse{
		Status:     "success",
		Symbols:    len(symbols),
		Counts:     result.Report.Counts,
		OutputPath: result.OutputPath,
		Report:     result.Report,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
