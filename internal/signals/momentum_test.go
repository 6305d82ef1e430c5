package signals

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

func priceFrame(t *testing.T, days int, cell func(di, si int) float64, symbols ...string) *contracts.Frame {
	t.Helper()
	dates := make([]time.Time, days)
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	values := make([][]float64, days)
	for di := range values {
		row := make([]float64, len(symbols))
		for si := range symbols {
			row[si] = cell(di, si)
		}
		values[di] = row
	}
	f, err := contracts.NewFrame(dates, symbols, values)
	require.NoError(t, err)
	return f
}

func TestBuild_WarmupIsNaN(t *testing.T) {
	b := NewMomentumBuilder(5, 3, logger.NewNop())
	prices := priceFrame(t, 30, func(di, si int) float64 { return 100 + float64(di) }, "AAA")

	frame, err := b.Build(prices)
	require.NoError(t, err)

	dates := frame.Dates()
	// lookback+smooth 이전에는 점수 없음
	for i := 0; i < 8; i++ {
		_, ok := frame.At(dates[i], "AAA")
		assert.False(t, ok, "day %d should be warmup", i)
	}
	_, ok := frame.At(dates[8], "AAA")
	assert.True(t, ok, "scores should start after warmup")
}

func TestBuild_UptrendScoresPositive(t *testing.T) {
	b := NewMomentumBuilder(5, 3, logger.NewNop())
	up := priceFrame(t, 30, func(di, si int) float64 { return 100 * math.Pow(1.01, float64(di)) }, "UP")
	down := priceFrame(t, 30, func(di, si int) float64 { return 100 * math.Pow(0.99, float64(di)) }, "DN")

	upFrame, err := b.Build(up)
	require.NoError(t, err)
	dnFrame, err := b.Build(down)
	require.NoError(t, err)

	last := upFrame.Dates()[29]
	upScore, ok := upFrame.At(last, "UP")
	require.True(t, ok)
	assert.Positive(t, upScore)

	dnScore, ok := dnFrame.At(last, "DN")
	require.True(t, ok)
	assert.Negative(t, dnScore)
}

func TestBuild_ShortHistoryAllNaN(t *testing.T) {
	b := NewMomentumBuilder(20, 5, logger.NewNop())
	prices := priceFrame(t, 10, func(di, si int) float64 { return 100 }, "AAA")

	frame, err := b.Build(prices)
	require.NoError(t, err)

	for _, d := range frame.Dates() {
		_, ok := frame.At(d, "AAA")
		assert.False(t, ok)
	}
}

func TestBuild_PreservesShape(t *testing.T) {
	b := NewMomentumBuilder(5, 3, logger.NewNop())
	prices := priceFrame(t, 20, func(di, si int) float64 { return 100 + float64(di+si) }, "AAA", "BBB")

	frame, err := b.Build(prices)
	require.NoError(t, err)

	assert.Equal(t, prices.NumDates(), frame.NumDates())
	assert.Equal(t, prices.Symbols(), frame.Symbols())
}

func TestFlatten_SkipsNaN(t *testing.T) {
	b := NewMomentumBuilder(5, 3, logger.NewNop())
	prices := priceFrame(t, 20, func(di, si int) float64 { return 100 + float64(di) }, "AAA")

	frame, err := b.Build(prices)
	require.NoError(t, err)

	rows := Flatten(frame)
	assert.NotEmpty(t, rows)
	// 워밍업 구간(NaN)은 행으로 나오지 않음
	assert.Less(t, len(rows), frame.NumDates())
	for _, r := range rows {
		assert.Equal(t, "AAA", r.Symbol)
		assert.False(t, math.IsNaN(r.Score))
	}
}
