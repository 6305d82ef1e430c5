package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-backtest/pkg/config"
)

const pingTimeout = 5 * time.Second

// DB wraps the pgx connection pool.
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New opens a connection pool and verifies it with a ping.
// ⭐ SSOT: 유일하게 pgxpool.New()를 호출하는 함수
func New(cfg *config.Config) (*DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	pc.MaxConns = int32(cfg.Database.MaxConns)
	pc.MinConns = int32(cfg.Database.MinConns)
	pc.MaxConnLifetime = cfg.Database.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus summarizes pool health for the API health endpoint.
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time"`
	TotalConns   int32         `json:"total_conns"`
	IdleConns    int32         `json:"idle_conns"`
	MaxConns     int32         `json:"max_conns"`
	Error        string        `json:"error,omitempty"`
}

// HealthCheck pings the database and reports pool statistics.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	st := db.Pool.Stat()
	status.TotalConns = st.TotalConns()
	status.IdleConns = st.IdleConns()
	status.MaxConns = st.MaxConns()
	status.Healthy = true
	return status, nil
}
