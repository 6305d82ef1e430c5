package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// busyScenario builds a run with longs, shorts, expirations, skips, and a
// weekly schedule that chunk boundaries will cut mid-week.
func busyScenario(t *testing.T, days int) (*contracts.Frame, *contracts.Frame, Config) {
	t.Helper()

	dates := tradingDays(days)
	symbols := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"}

	prices := makeFrame(t, dates, symbols, func(di, si int) float64 {
		base := 30_000 + float64(si)*11_000
		return base * (1 + 0.02*math.Sin(float64(di)*0.37+float64(si)*0.9))
	})
	scores := makeFrame(t, dates, symbols, func(di, si int) float64 {
		return math.Sin(float64(di)*0.21 + float64(si)*1.3)
	})

	cfg := DefaultConfig()
	cfg.InitialCapital = 20_000_000
	cfg.TopN = 3
	cfg.BottomN = 2
	cfg.HoldingPeriod = 7
	cfg.RebalanceFreq = "W"

	return prices, scores, cfg
}

func TestChunkedRun_EquivalentToUnchunked(t *testing.T) {
	prices, scores, cfg := busyScenario(t, 120)

	baseline, err := Run(context.Background(), prices, scores, cfg, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, baseline.States, 120)

	// ⭐ 계약: 어떤 chunk_size에서도 무청크 결과와 수치 동일
	for _, chunkSize := range []int{5, 20, 1000} {
		runner, err := NewChunkedRunner(prices, scores, cfg, chunkSize, logger.NewNop())
		require.NoError(t, err)

		chunked, err := runner.Run(context.Background())
		require.NoError(t, err, "chunk size %d", chunkSize)

		require.Len(t, chunked.States, len(baseline.States), "chunk size %d", chunkSize)
		require.Len(t, chunked.Trades, len(baseline.Trades), "chunk size %d", chunkSize)
		assert.Equal(t, baseline.RebalanceCount, chunked.RebalanceCount, "chunk size %d", chunkSize)
		assert.Equal(t, baseline.Warnings, chunked.Warnings, "chunk size %d", chunkSize)

		for i := range baseline.States {
			want, got := baseline.States[i], chunked.States[i]
			assert.True(t, want.Date.Equal(got.Date), "chunk %d state %d date", chunkSize, i)
			assertRelDelta(t, want.Total, got.Total, 1e-9, "chunk %d state %d total", chunkSize, i)
			assertRelDelta(t, want.Cash, got.Cash, 1e-9, "chunk %d state %d cash", chunkSize, i)
			assertRelDelta(t, want.ShortInterest, got.ShortInterest, 1e-9, "chunk %d state %d interest", chunkSize, i)
		}

		for i := range baseline.Trades {
			want, got := baseline.Trades[i], chunked.Trades[i]
			assert.Equal(t, want.Symbol, got.Symbol, "chunk %d trade %d", chunkSize, i)
			assert.Equal(t, want.Action, got.Action, "chunk %d trade %d", chunkSize, i)
			assert.Equal(t, want.Quantity, got.Quantity, "chunk %d trade %d", chunkSize, i)
		}
	}
}

// assertRelDelta checks |a-b| <= tol * max(1, |a|).
func assertRelDelta(t *testing.T, want, got, tol float64, msgAndArgs ...interface{}) {
	t.Helper()
	scale := math.Abs(want)
	if scale < 1 {
		scale = 1
	}
	assert.InDelta(t, want, got, tol*scale, msgAndArgs...)
}

func TestChunkedRun_ChunkLargerThanCalendar(t *testing.T) {
	prices, scores, cfg := busyScenario(t, 15)

	runner, err := NewChunkedRunner(prices, scores, cfg, 10_000, logger.NewNop())
	require.NoError(t, err)

	out, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.States, 15)
}

func TestNewChunkedRunner_RejectsBadChunkSize(t *testing.T) {
	prices, scores, cfg := busyScenario(t, 5)

	_, err := NewChunkedRunner(prices, scores, cfg, 0, logger.NewNop())
	var cfgErr contracts.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestChunkedRun_CancellationAbortsWithoutPartialResult(t *testing.T) {
	prices, scores, cfg := busyScenario(t, 40)

	runner, err := NewChunkedRunner(prices, scores, cfg, 10, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runner.Run(ctx)
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestRun_DispatchesOnChunkSize(t *testing.T) {
	prices, scores, cfg := busyScenario(t, 30)

	cfg.ChunkSizeDays = 7
	chunked, err := Run(context.Background(), prices, scores, cfg, logger.NewNop())
	require.NoError(t, err)

	cfg.ChunkSizeDays = 0
	plain, err := Run(context.Background(), prices, scores, cfg, logger.NewNop())
	require.NoError(t, err)

	require.Len(t, chunked.States, len(plain.States))
	assertRelDelta(t, plain.States[len(plain.States)-1].Total,
		chunked.States[len(chunked.States)-1].Total, 1e-9)
}
