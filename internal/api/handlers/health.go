package handlers

import (
	"net/http"

	"github.com/wonny/aegis-backtest/pkg/database"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// HealthHandler reports service and database health
type HealthHandler struct {
	db     *database.DB
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: log}
}

// Get returns server health status
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.db.HealthCheck(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "degraded",
			"service": "aegis-backtest-api",
			"error":   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  "aegis-backtest-api",
		"database": status,
	})
}
