package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-backtest/internal/btconfig"
	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/report"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// BacktestHandler handles backtest API endpoints
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	runRepo  *report.Repository
	dataRepo *marketdata.Repository
	logger   *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(runRepo *report.Repository, dataRepo *marketdata.Repository, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		runRepo:  runRepo,
		dataRepo: dataRepo,
		logger:   log,
	}
}

// List returns recent backtest runs without their full payloads
// GET /api/backtests?limit=50
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = n
	}

	records, err := h.runRepo.List(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list backtest runs")
		respondError(w, http.StatusInternalServerError, "Failed to list backtest runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(records),
		"runs":  records,
	})
}

// Get returns one backtest run including its full result payload
// GET /api/backtests/{id}
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	rec, err := h.runRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Backtest run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load backtest run")
		respondError(w, http.StatusInternalServerError, "Failed to load backtest run")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// RunRequest represents a backtest execution request. Config fields not
// present in the body keep their defaults.
type RunRequest struct {
	From    string        `json:"from"`    // YYYY-MM-DD
	To      string        `json:"to"`      // YYYY-MM-DD
	Symbols []string      `json:"symbols"` // empty = all available
	Config  engine.Config `json:"config"`
	Save    bool          `json:"save"`
}

// RunResponse represents a backtest execution response
type RunResponse struct {
	ID         int64             `json:"id,omitempty"`
	ConfigHash string            `json:"config_hash"`
	Result     *contracts.Result `json:"result"`
}

// Run executes a backtest over stored market data
// POST /api/backtests
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := RunRequest{Config: engine.DefaultConfig()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := req.Config.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	prices, err := h.dataRepo.LoadPriceFrame(ctx, from, to, req.Symbols)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load price frame")
		respondError(w, http.StatusInternalServerError, "Failed to load price data")
		return
	}

	signals, err := h.dataRepo.LoadSignalFrame(ctx, from, to, req.Symbols)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load signal frame")
		respondError(w, http.StatusInternalServerError, "Failed to load signal data")
		return
	}

	out, err := engine.Run(ctx, prices, signals, req.Config, h.logger)
	if err != nil {
		var cfgErr contracts.ConfigError
		var dataErr contracts.DataError
		if errors.As(err, &cfgErr) || errors.As(err, &dataErr) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Backtest run failed")
		respondError(w, http.StatusInternalServerError, "Backtest run failed")
		return
	}

	res := report.Aggregate(out, req.Config)

	hash, err := btconfig.Hash(req.Config)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash config")
		respondError(w, http.StatusInternalServerError, "Failed to hash config")
		return
	}

	resp := RunResponse{ConfigHash: hash, Result: res}

	if req.Save {
		rec := report.NewRunRecord(hash, req.Config, res)
		id, err := h.runRepo.Save(ctx, rec)
		if err != nil {
			h.logger.WithError(err).Error("Failed to save backtest run")
			respondError(w, http.StatusInternalServerError, "Failed to save backtest run")
			return
		}
		resp.ID = id
	}

	h.logger.WithFields(map[string]interface{}{
		"config_hash": hash,
		"trades":      len(res.Trades),
		"warnings":    len(res.Warnings),
		"saved":       req.Save,
	}).Info("Backtest run completed")

	respondJSON(w, http.StatusOK, resp)
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if fromStr == "" {
		from = time.Now().AddDate(-1, 0, 0)
	} else {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, errors.New("Invalid 'from' date format (expected YYYY-MM-DD)")
		}
	}

	if toStr == "" {
		to = time.Now()
	} else {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, errors.New("Invalid 'to' date format (expected YYYY-MM-DD)")
		}
	}

	if to.Before(from) {
		return from, to, errors.New("'to' date is before 'from' date")
	}

	return from, to, nil
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
