package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-backtest/internal/api/handlers"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// NewRouter wires the backtest API routes.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(btHandler *handlers.BacktestHandler, healthHandler *handlers.HealthHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLog(log), recoverPanic(log))

	r.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/backtests", btHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/backtests", btHandler.Run).Methods(http.MethodPost)
	api.HandleFunc("/backtests/{id:[0-9]+}", btHandler.Get).Methods(http.MethodGet)

	return r
}

func requestLog(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

func recoverPanic(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					log.WithFields(map[string]interface{}{
						"error": v,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
