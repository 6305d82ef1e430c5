package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-backtest/internal/api"
	"github.com/wonny/aegis-backtest/internal/api/handlers"
	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/report"
	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/database"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 백테스트 실행/조회 엔드포인트 제공

Endpoints:
  GET  /health               - Health check
  GET  /api/backtests        - 실행 이력 조회
  GET  /api/backtests/{id}   - 결과 상세 조회
  POST /api/backtests        - 백테스트 실행

Example:
  go run ./cmd/backtest api
  go run ./cmd/backtest api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Backtest API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	runRepo := report.NewRepository(db.Pool)
	dataRepo := marketdata.NewRepository(db.Pool)

	btHandler := handlers.NewBacktestHandler(runRepo, dataRepo, log)
	healthHandler := handlers.NewHealthHandler(db, log)

	router := api.NewRouter(btHandler, healthHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/backtests")
	fmt.Println("  GET  /api/backtests/{id}")
	fmt.Println("  POST /api/backtests")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
