package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// 백테스트 POST는 동기 실행이라 쓰기 타임아웃을 길게 잡는다.
const (
	readTimeout  = 15 * time.Second
	writeTimeout = 60 * time.Second
	idleTimeout  = 60 * time.Second
)

// Server wraps the HTTP server lifecycle.
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	srv    *http.Server
	logger *logger.Logger
	port   string
	env    string
}

// New creates the API server around an already-built router.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: log,
		port:   cfg.Port,
		env:    cfg.Env,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.port,
		"env":  s.env,
	}).Info("Starting API server")

	err := s.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on :%s: %w", s.port, err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
