package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/marketdata/naver"
	"github.com/wonny/aegis-backtest/internal/signals"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// PriceSyncJob pulls recent daily prices for every tracked symbol and
// rebuilds the momentum scores afterwards
// ⭐ SSOT: 가격 동기화 스케줄은 이 Job에서만
type PriceSyncJob struct {
	fetcher *naver.Client
	repo    *marketdata.Repository
	logger  *logger.Logger
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(fetcher *naver.Client, repo *marketdata.Repository, log *logger.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		fetcher: fetcher,
		repo:    repo,
		logger:  log,
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron schedule (4:30 PM KST, weekdays)
func (j *PriceSyncJob) Schedule() string {
	return "0 30 16 * * 1-5"
}

// Run executes the price sync
func (j *PriceSyncJob) Run(ctx context.Context) error {
	symbols, err := j.repo.ListSymbols(ctx)
	if err != nil {
		return fmt.Errorf("list symbols: %w", err)
	}
	if len(symbols) == 0 {
		j.logger.Warn("No tracked symbols, skipping price sync")
		return nil
	}

	// Last 10 calendar days covers weekends and short holidays.
	to := time.Now()
	from := to.AddDate(0, 0, -10)

	fetched := 0
	for _, sym := range symbols {
		prices, err := j.fetcher.FetchDailyPrices(ctx, sym, from, to)
		if err != nil {
			j.logger.WithError(err).WithField("symbol", sym).Warn("Price fetch failed, skipping symbol")
			continue
		}
		if err := j.repo.SavePrices(ctx, prices); err != nil {
			return fmt.Errorf("save prices for %s: %w", sym, err)
		}
		fetched++
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"fetched": fetched,
	}).Info("Price sync completed")

	if fetched == 0 {
		return fmt.Errorf("price sync: all %d symbols failed", len(symbols))
	}

	return j.rebuildScores(ctx, to)
}

// rebuildScores recomputes momentum scores over the trailing year
func (j *PriceSyncJob) rebuildScores(ctx context.Context, to time.Time) error {
	from := to.AddDate(-1, 0, 0)

	prices, err := j.repo.LoadPriceFrame(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("load price frame: %w", err)
	}
	if prices.IsEmpty() {
		j.logger.Warn("Price frame empty, skipping score rebuild")
		return nil
	}

	builder := signals.NewMomentumBuilder(20, 5, j.logger)
	scoreFrame, err := builder.Build(prices)
	if err != nil {
		return fmt.Errorf("build momentum scores: %w", err)
	}

	scores := signals.Flatten(scoreFrame)
	if err := j.repo.SaveScores(ctx, scores); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}

	j.logger.WithField("scores", len(scores)).Info("Momentum scores rebuilt")
	return nil
}
