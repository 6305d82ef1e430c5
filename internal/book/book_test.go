package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/costs"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

var testDate = time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)

// 원장 불변식: Total == Cash + LongValue - ShortValue
func assertIdentity(t *testing.T, b *Book) {
	t.Helper()
	assert.InDelta(t, b.Cash()+b.LongValue()-b.ShortValue(), b.TotalValue(), 1e-9)
}

func TestOpenLong_CashAndValue(t *testing.T) {
	model := costs.NewStandard(0.0015, 0, 0.0023, 0.001, 0.04)
	b := New(1_000_000, 0.4, model, logger.NewNop())

	trade, err := b.Open("005930", contracts.SideLong, 10, 50_000, testDate)
	require.NoError(t, err)

	notional := 10 * 50_000.0
	commission := notional * 0.0015
	slippage := notional * 0.001

	assert.Equal(t, contracts.ActionOpen, trade.Action)
	assert.Zero(t, trade.StampTax, "no stamp tax on open")
	assert.InDelta(t, 1_000_000-notional-commission-slippage, b.Cash(), 1e-9)
	assert.InDelta(t, notional, b.LongValue(), 1e-9)
	assertIdentity(t, b)
}

func TestOpenLong_InsufficientCash(t *testing.T) {
	b := New(100_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("005930", contracts.SideLong, 10, 50_000, testDate)
	assert.ErrorIs(t, err, ErrInsufficientCash)
	assert.False(t, b.Has("005930"))
	assert.Equal(t, 100_000.0, b.Cash(), "failed open must not move cash")
}

func TestOpenDuplicate_InvalidOperation(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("005930", contracts.SideLong, 1, 100, testDate)
	require.NoError(t, err)

	_, err = b.Open("005930", contracts.SideLong, 1, 100, testDate)
	var invalid contracts.InvalidOperationError
	assert.ErrorAs(t, err, &invalid)
}

func TestCloseLong_RoundTrip(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("005930", contracts.SideLong, 10, 50_000, testDate)
	require.NoError(t, err)

	// 무비용 모델에서 동일가 청산은 자본을 정확히 보존
	trade, err := b.Close("005930", 50_000, testDate.AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.Equal(t, contracts.ActionClose, trade.Action)
	assert.Equal(t, 1_000_000.0, b.Cash())
	assert.Zero(t, b.LongValue())
	assert.False(t, b.Has("005930"))
	assertIdentity(t, b)
}

func TestCloseNotHeld_InvalidOperation(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Close("000660", 100, testDate)
	var invalid contracts.InvalidOperationError
	assert.ErrorAs(t, err, &invalid)
}

func TestOpenShort_ProceedsAndMargin(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("000660", contracts.SideShort, 10, 50_000, testDate)
	require.NoError(t, err)

	notional := 10 * 50_000.0

	// 공매도 대금은 현금에 가산
	assert.InDelta(t, 1_000_000+notional, b.Cash(), 1e-9)
	assert.InDelta(t, notional, b.ShortValue(), 1e-9)
	// 증거금만큼 가용 현금이 잠김
	assert.InDelta(t, b.Cash()-notional*0.4, b.AvailableCash(), 1e-9)
	assertIdentity(t, b)
}

func TestShortRoundTrip_FlatPricePreservesCapital(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("000660", contracts.SideShort, 10, 50_000, testDate)
	require.NoError(t, err)

	_, err = b.Close("000660", 50_000, testDate.AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.InDelta(t, 1_000_000.0, b.Cash(), 1e-9)
	assert.Zero(t, b.ShortValue())
	assert.InDelta(t, b.Cash(), b.AvailableCash(), 1e-9, "margin released on close")
}

func TestShortInterest_AccruesAndSettles(t *testing.T) {
	model := costs.NewStandard(0, 0, 0, 0, 0.04)
	b := New(1_000_000, 0.4, model, logger.NewNop())

	_, err := b.Open("000660", contracts.SideShort, 10, 50_000, testDate)
	require.NoError(t, err)

	notional := 10 * 50_000.0
	dailyInterest := notional * 0.04 / 365.0

	totalBefore := b.TotalValue()
	b.AccrueShortInterest()
	b.AccrueShortInterest()

	// 미지급 이자는 부채: 현금은 그대로, 총자산은 즉시 감소
	assert.InDelta(t, 2*dailyInterest, b.CumulativeInterest(), 1e-9)
	assert.InDelta(t, totalBefore-2*dailyInterest, b.TotalValue(), 1e-9)
	assertIdentity(t, b)

	// 청산 시 누적 이자가 현금에서 차감
	cashBefore := b.Cash()
	_, err = b.Close("000660", 50_000, testDate.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.InDelta(t, cashBefore-notional-2*dailyInterest, b.Cash(), 1e-9)
}

func TestMarkToMarket(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("005930", contracts.SideLong, 10, 50_000, testDate)
	require.NoError(t, err)

	b.MarkToMarket(map[string]float64{"005930": 55_000})
	assert.InDelta(t, 550_000, b.LongValue(), 1e-9)
	assertIdentity(t, b)

	// 가격 누락 시 직전 마크 유지
	b.MarkToMarket(map[string]float64{})
	assert.InDelta(t, 550_000, b.LongValue(), 1e-9)
}

func TestHeldDaysAndExpiry(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("005930", contracts.SideLong, 1, 100, testDate)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		b.TickHeldDays()
	}
	assert.Empty(t, b.ExpiredSymbols(5), "not expired at 4 held days")

	b.TickHeldDays()
	assert.Equal(t, []string{"005930"}, b.ExpiredSymbols(5))
}

func TestSnapshot(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	_, err := b.Open("005930", contracts.SideLong, 10, 50_000, testDate)
	require.NoError(t, err)

	snap := b.Snapshot(testDate)
	assert.Equal(t, contracts.Day(testDate), snap.Date)
	assert.InDelta(t, b.Cash(), snap.Cash, 1e-9)
	assert.InDelta(t, b.TotalValue(), snap.Total, 1e-9)
	assert.InDelta(t, snap.Cash+snap.LongValue-snap.ShortValue, snap.Total, 1e-9)
}

func TestOpen_RejectsBadQuantityOrPrice(t *testing.T) {
	b := New(1_000_000, 0.4, costs.Free{}, logger.NewNop())

	for _, tc := range []struct{ qty, px float64 }{
		{0, 100}, {-1, 100}, {10, 0}, {10, -5},
	} {
		_, err := b.Open("X", contracts.SideLong, tc.qty, tc.px, testDate)
		assert.Error(t, err, "qty=%v px=%v", tc.qty, tc.px)
	}
}
