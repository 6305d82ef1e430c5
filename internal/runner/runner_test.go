package runner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

func testFrames(t *testing.T) (*contracts.Frame, *contracts.Frame) {
	t.Helper()

	days := 40
	symbols := []string{"AAA", "BBB", "CCC", "DDD"}
	dates := make([]time.Time, 0, days)
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for len(dates) < days {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}

	prices := make([][]float64, days)
	scores := make([][]float64, days)
	for di := range dates {
		pRow := make([]float64, len(symbols))
		sRow := make([]float64, len(symbols))
		for si := range symbols {
			pRow[si] = 10_000 + float64(si)*1_000 + 50*math.Sin(float64(di))
			sRow[si] = math.Cos(float64(di) + float64(si))
		}
		prices[di] = pRow
		scores[di] = sRow
	}

	pf, err := contracts.NewFrame(dates, symbols, prices)
	require.NoError(t, err)
	sf, err := contracts.NewFrame(dates, symbols, scores)
	require.NoError(t, err)
	return pf, sf
}

func baseConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.InitialCapital = 5_000_000
	cfg.TopN = 2
	cfg.BottomN = 0
	cfg.HoldingPeriod = 5
	cfg.RebalanceFreq = "W"
	return cfg
}

func TestGrid_ExpandsCombinations(t *testing.T) {
	tasks := Grid(baseConfig(), []int{5, 10}, []int{5, 20, 60})

	require.Len(t, tasks, 6)
	assert.Equal(t, "top5_hold5", tasks[0].Name)
	assert.Equal(t, 5, tasks[0].Config.TopN)
	assert.Equal(t, 5, tasks[0].Config.HoldingPeriod)
	assert.Equal(t, "top10_hold60", tasks[5].Name)

	// 공통 파라미터는 그대로 복제
	for _, task := range tasks {
		assert.Equal(t, 5_000_000.0, task.Config.InitialCapital)
	}
}

func TestRunAll_AllTasksComplete(t *testing.T) {
	prices, scores := testFrames(t)
	r := New(prices, scores, 3, nil, logger.NewNop())

	tasks := Grid(baseConfig(), []int{1, 2}, []int{5, 10})
	results := r.RunAll(context.Background(), tasks)

	require.Len(t, results, 4)
	for _, res := range results {
		assert.NoError(t, res.Err, res.Name)
		require.NotNil(t, res.Result, res.Name)
		assert.NotEmpty(t, res.ConfigHash, res.Name)
		assert.Len(t, res.Result.States, 40, res.Name)
		assert.False(t, res.Cached)
	}

	// 완료 순서와 무관하게 이름순 정렬
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].Name, results[i].Name)
	}
}

func TestRunAll_BadConfigFailsOnlyThatTask(t *testing.T) {
	prices, scores := testFrames(t)
	r := New(prices, scores, 2, nil, logger.NewNop())

	bad := baseConfig()
	bad.InitialCapital = -1

	tasks := []Task{
		{Name: "good", Config: baseConfig()},
		{Name: "bad", Config: bad},
	}

	results := r.RunAll(context.Background(), tasks)
	require.Len(t, results, 2)

	// 이름순: bad가 먼저
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NotNil(t, results[1].Result)
}

func TestRunAll_SameConfigSameHash(t *testing.T) {
	prices, scores := testFrames(t)
	r := New(prices, scores, 2, nil, logger.NewNop())

	tasks := []Task{
		{Name: "a", Config: baseConfig()},
		{Name: "b", Config: baseConfig()},
	}

	results := r.RunAll(context.Background(), tasks)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].ConfigHash, results[1].ConfigHash)
}
