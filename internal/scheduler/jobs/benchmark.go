package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-backtest/internal/btconfig"
	"github.com/wonny/aegis-backtest/internal/engine"
	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/report"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// BenchmarkJob runs the default strategy over the trailing year each
// evening and stores the result, so drift in the data shows up as drift
// in the saved metrics
// ⭐ SSOT: 야간 벤치마크 실행은 이 Job에서만
type BenchmarkJob struct {
	dataRepo *marketdata.Repository
	runRepo  *report.Repository
	logger   *logger.Logger
}

// NewBenchmarkJob creates a new benchmark job
func NewBenchmarkJob(dataRepo *marketdata.Repository, runRepo *report.Repository, log *logger.Logger) *BenchmarkJob {
	return &BenchmarkJob{
		dataRepo: dataRepo,
		runRepo:  runRepo,
		logger:   log,
	}
}

// Name returns the job name
func (j *BenchmarkJob) Name() string {
	return "nightly_benchmark"
}

// Schedule returns the cron schedule (6 PM KST, weekdays)
func (j *BenchmarkJob) Schedule() string {
	return "0 0 18 * * 1-5"
}

// Run executes the benchmark backtest
func (j *BenchmarkJob) Run(ctx context.Context) error {
	to := time.Now()
	from := to.AddDate(-1, 0, 0)

	prices, err := j.dataRepo.LoadPriceFrame(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("load price frame: %w", err)
	}
	signals, err := j.dataRepo.LoadSignalFrame(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("load signal frame: %w", err)
	}

	cfg := engine.DefaultConfig()
	out, err := engine.Run(ctx, prices, signals, cfg, j.logger)
	if err != nil {
		return fmt.Errorf("run benchmark: %w", err)
	}

	res := report.Aggregate(out, cfg)

	hash, err := btconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}

	id, err := j.runRepo.Save(ctx, report.NewRunRecord(hash, cfg, res))
	if err != nil {
		return fmt.Errorf("save benchmark result: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       id,
		"final_total":  res.FinalTotal(),
		"total_return": res.Summary.TotalReturn,
		"warnings":     len(res.Warnings),
	}).Info("Nightly benchmark completed")

	return nil
}
