package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
)

// RunRecord is one persisted backtest run.
type RunRecord struct {
	ID         int64             `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	ConfigHash string            `json:"config_hash"`
	Config     engine.Config     `json:"config"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
	FinalTotal float64           `json:"final_total"`

	TotalReturn  float64 `json:"total_return"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	WarningCount int     `json:"warning_count"`

	// Result is the full payload; nil in list views.
	Result *contracts.Result `json:"result,omitempty"`
}

// NewRunRecord builds a record from an aggregated result.
func NewRunRecord(configHash string, cfg engine.Config, res *contracts.Result) *RunRecord {
	rec := &RunRecord{
		CreatedAt:    time.Now(),
		ConfigHash:   configHash,
		Config:       cfg,
		FinalTotal:   res.FinalTotal(),
		TotalReturn:  res.Summary.TotalReturn,
		SharpeRatio:  res.Summary.SharpeRatio,
		MaxDrawdown:  res.Summary.MaxDrawdown,
		WarningCount: len(res.Warnings),
		Result:       res,
	}
	if n := len(res.States); n > 0 {
		rec.StartDate = res.States[0].Date
		rec.EndDate = res.States[n-1].Date
	}
	return rec
}

// Repository persists run summaries for the API surface.
// ⭐ SSOT: 백테스트 결과 저장은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new result repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a run record and returns its id.
func (r *Repository) Save(ctx context.Context, rec *RunRecord) (int64, error) {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}
	cfgJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return 0, fmt.Errorf("marshal config: %w", err)
	}

	query := `
		INSERT INTO backtest.run_results
			(created_at, config_hash, config, start_date, end_date,
			 final_total, total_return, sharpe_ratio, max_drawdown,
			 warning_count, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err = r.pool.QueryRow(ctx, query,
		rec.CreatedAt, rec.ConfigHash, cfgJSON, rec.StartDate, rec.EndDate,
		rec.FinalTotal, rec.TotalReturn, rec.SharpeRatio, rec.MaxDrawdown,
		rec.WarningCount, payload,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run result: %w", err)
	}

	rec.ID = id
	return id, nil
}

// GetByID loads a full run record including the result payload.
func (r *Repository) GetByID(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
		SELECT id, created_at, config_hash, config, start_date, end_date,
		       final_total, total_return, sharpe_ratio, max_drawdown,
		       warning_count, result
		FROM backtest.run_results
		WHERE id = $1
	`

	var rec RunRecord
	var cfgJSON, payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.CreatedAt, &rec.ConfigHash, &cfgJSON, &rec.StartDate, &rec.EndDate,
		&rec.FinalTotal, &rec.TotalReturn, &rec.SharpeRatio, &rec.MaxDrawdown,
		&rec.WarningCount, &payload,
	)
	if err != nil {
		return nil, fmt.Errorf("query run result: %w", err)
	}

	if err := json.Unmarshal(cfgJSON, &rec.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal(payload, &rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &rec, nil
}

// List returns recent run summaries, newest first, without payloads.
func (r *Repository) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, created_at, config_hash, config, start_date, end_date,
		       final_total, total_return, sharpe_ratio, max_drawdown, warning_count
		FROM backtest.run_results
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list run results: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var cfgJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.ConfigHash, &cfgJSON, &rec.StartDate, &rec.EndDate,
			&rec.FinalTotal, &rec.TotalReturn, &rec.SharpeRatio, &rec.MaxDrawdown,
			&rec.WarningCount,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cfgJSON, &rec.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
