package engine

import (
	"context"
	"time"

	"github.com/wonny/aegis-backtest/internal/book"
	"github.com/wonny/aegis-backtest/internal/calendar"
	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// ChunkedRunner splits a long date range into fixed-size chunks of trading
// days and runs one seeded simulator per chunk, carrying the position book
// and cash across boundaries. Chunking only bounds memory residency; the
// stitched output is numerically equivalent to a single unchunked run.
// ⭐ 계약: 어떤 chunk_size에서도 결과는 무청크 실행과 동일
type ChunkedRunner struct {
	prices  *contracts.Frame
	signals *contracts.Frame
	cfg     Config
	chunk   int
	logger  *logger.Logger
}

// NewChunkedRunner validates inputs and builds a runner.
// chunkSizeDays must be >= 1.
func NewChunkedRunner(prices, signals *contracts.Frame, cfg Config, chunkSizeDays int, log *logger.Logger) (*ChunkedRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if chunkSizeDays < 1 {
		return nil, contracts.ConfigError{Field: "chunk_size_days", Message: "must be >= 1"}
	}
	if err := validateInputs(prices, signals); err != nil {
		return nil, err
	}

	return &ChunkedRunner{
		prices:  prices,
		signals: signals,
		cfg:     cfg,
		chunk:   chunkSizeDays,
		logger:  log,
	}, nil
}

// Run executes all chunks in order and stitches the output series.
// A fatal error in any chunk aborts the whole run with no partial result.
func (r *ChunkedRunner) Run(ctx context.Context) (*contracts.RunOutput, error) {
	dates := r.prices.Dates()

	// The rebalance schedule is computed once over the full calendar.
	// Bucketing per chunk would move weekly/monthly rebalances whenever a
	// boundary splits a week or month.
	freq, _ := calendar.ParseFrequency(r.cfg.RebalanceFreq)
	schedule, err := calendar.Schedule(dates, freq)
	if err != nil {
		return nil, err
	}
	rebal := make(map[int64]bool, len(schedule))
	for _, d := range schedule {
		rebal[d.Unix()] = true
	}

	// One book for the whole run; positions are never force-closed at a
	// chunk boundary.
	model := r.cfg.CostModel()
	bk := book.New(r.cfg.InitialCapital, r.cfg.MarginRatio, model, r.logger)

	out := &contracts.RunOutput{
		States:   make([]contracts.PortfolioState, 0, len(dates)),
		Trades:   make([]contracts.Trade, 0),
		Warnings: make([]string, 0),
	}

	for start := 0; start < len(dates); start += r.chunk {
		end := start + r.chunk
		if end > len(dates) {
			end = len(dates)
		}

		sim := newSeeded(r.prices, r.signals, r.cfg, bk, rebal, dates[start:end], r.logger)
		chunkOut, err := sim.Run(ctx)
		if err != nil {
			return nil, err
		}

		out.States = append(out.States, chunkOut.States...)
		out.Trades = append(out.Trades, chunkOut.Trades...)
		out.Warnings = append(out.Warnings, chunkOut.Warnings...)
		out.RebalanceCount += chunkOut.RebalanceCount

		r.logger.WithFields(map[string]interface{}{
			"chunk_start": dates[start].Format("2006-01-02"),
			"chunk_days":  end - start,
			"total":       bk.TotalValue(),
		}).Debug("Chunk completed")
	}

	return out, nil
}

// Run is the single entry point callers use: it picks chunked or unchunked
// execution from cfg.ChunkSizeDays. Both paths return the same shape.
func Run(ctx context.Context, prices, signals *contracts.Frame, cfg Config, log *logger.Logger) (*contracts.RunOutput, error) {
	if cfg.ChunkSizeDays > 0 {
		runner, err := NewChunkedRunner(prices, signals, cfg, cfg.ChunkSizeDays, log)
		if err != nil {
			return nil, err
		}
		return runner.Run(ctx)
	}

	sim, err := New(prices, signals, cfg, log)
	if err != nil {
		return nil, err
	}
	return sim.Run(ctx)
}

// TradingDaysBetween counts trading dates within [from, to] on a calendar.
// 보조 함수: 리포트/CLI에서 사용
func TradingDaysBetween(dates []time.Time, from, to time.Time) int {
	n := 0
	f, t := contracts.Day(from), contracts.Day(to)
	for _, d := range dates {
		if !d.Before(f) && !d.After(t) {
			n++
		}
	}
	return n
}
