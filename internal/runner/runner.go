package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-backtest/internal/btconfig"
	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
	"github.com/wonny/aegis-backtest/internal/report"
	"github.com/wonny/aegis-backtest/pkg/logger"
	"github.com/wonny/aegis-backtest/pkg/redis"
)

// Task is one parameter combination to simulate.
type Task struct {
	Name   string
	Config engine.Config
}

// TaskResult pairs a task with its aggregated outcome.
// 실패한 태스크는 Err만 채워짐
type TaskResult struct {
	Name       string
	ConfigHash string
	Result     *contracts.Result
	Err        error
	Cached     bool
	Elapsed    time.Duration
}

// Runner executes many backtests over shared read-only frames.
// ⭐ SSOT: 그리드/배치 실행은 여기서만
type Runner struct {
	prices  *contracts.Frame
	signals *contracts.Frame
	workers int
	cache   *redis.Cache
	logger  *logger.Logger
}

// New creates a batch runner. cache may be nil to disable memoization.
func New(prices, signals *contracts.Frame, workers int, cache *redis.Cache, log *logger.Logger) *Runner {
	if workers < 1 {
		workers = 4
	}
	return &Runner{
		prices:  prices,
		signals: signals,
		workers: workers,
		cache:   cache,
		logger:  log.WithField("module", "runner"),
	}
}

// RunAll executes every task with a bounded worker pool. The frames are
// shared across workers; each simulation owns its book. Results come back
// sorted by task name regardless of completion order.
func (r *Runner) RunAll(ctx context.Context, tasks []Task) []TaskResult {
	r.logger.WithFields(map[string]interface{}{
		"tasks":   len(tasks),
		"workers": r.workers,
	}).Info("Batch run started")

	results := make([]TaskResult, len(tasks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, task := range tasks {
		if ctx.Err() != nil {
			results[i] = TaskResult{Name: task.Name, Err: ctx.Err()}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, t Task) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = r.runOne(ctx, t)
		}(i, task)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.WithFields(map[string]interface{}{
		"total":  len(results),
		"failed": failed,
	}).Info("Batch run finished")

	return results
}

func (r *Runner) runOne(ctx context.Context, t Task) TaskResult {
	started := time.Now()

	hash, err := btconfig.Hash(t.Config)
	if err != nil {
		return TaskResult{Name: t.Name, Err: err}
	}

	// 동일 설정 재실행은 캐시에서
	if r.cache != nil {
		var cached contracts.Result
		found, cerr := r.cache.Get(ctx, redis.ResultKey(hash), &cached)
		if cerr != nil {
			r.logger.WithError(cerr).Warn("Result cache lookup failed")
		}
		if found {
			return TaskResult{
				Name:       t.Name,
				ConfigHash: hash,
				Result:     &cached,
				Cached:     true,
				Elapsed:    time.Since(started),
			}
		}
	}

	out, err := engine.Run(ctx, r.prices, r.signals, t.Config, r.logger)
	if err != nil {
		return TaskResult{Name: t.Name, ConfigHash: hash, Err: err}
	}

	res := report.Aggregate(out, t.Config)

	if r.cache != nil {
		if cerr := r.cache.Set(ctx, redis.ResultKey(hash), res, redis.TTLResult); cerr != nil {
			r.logger.WithError(cerr).Warn("Result cache store failed")
		}
	}

	return TaskResult{
		Name:       t.Name,
		ConfigHash: hash,
		Result:     res,
		Elapsed:    time.Since(started),
	}
}

// Grid expands a base config into one task per (top_n, holding_period)
// combination.
func Grid(base engine.Config, topNs, holdingPeriods []int) []Task {
	var tasks []Task
	for _, n := range topNs {
		for _, h := range holdingPeriods {
			cfg := base
			cfg.TopN = n
			cfg.HoldingPeriod = h
			tasks = append(tasks, Task{
				Name:   fmt.Sprintf("top%d_hold%d", n, h),
				Config: cfg,
			})
		}
	}
	return tasks
}
