package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aegis-backtest/pkg/logger"
)

func TestSelect_TopAndBottom(t *testing.T) {
	sel := NewSelector(2, 2, logger.NewNop())

	out := sel.Select(map[string]float64{
		"A": 5.0,
		"B": 4.0,
		"C": 3.0,
		"D": 2.0,
		"E": 1.0,
	})

	assert.Equal(t, []string{"A", "B"}, out.Longs)
	assert.Equal(t, []string{"D", "E"}, out.Shorts)
	assert.Empty(t, out.Warnings)
}

func TestSelect_LongShortDisjoint(t *testing.T) {
	// 후보가 적어 롱과 숏 풀이 겹치는 상황
	sel := NewSelector(2, 2, logger.NewNop())

	out := sel.Select(map[string]float64{
		"A": 3.0,
		"B": 2.0,
		"C": 1.0,
	})

	assert.Equal(t, []string{"A", "B"}, out.Longs)
	// C만 남음: 숏은 롱 선정 종목을 절대 포함하지 않음
	assert.Equal(t, []string{"C"}, out.Shorts)
	for _, s := range out.Shorts {
		assert.NotContains(t, out.Longs, s)
	}
	assert.Len(t, out.Warnings, 1, "shrunk short picks must warn")
}

func TestSelect_DropsNaN(t *testing.T) {
	sel := NewSelector(2, 0, logger.NewNop())

	out := sel.Select(map[string]float64{
		"A": math.NaN(),
		"B": 2.0,
		"C": 1.0,
	})

	assert.Equal(t, []string{"B", "C"}, out.Longs)
}

func TestSelect_TieBreakBySymbol(t *testing.T) {
	sel := NewSelector(2, 0, logger.NewNop())

	// 동점은 심볼 오름차순: 실행마다 동일한 결과
	out := sel.Select(map[string]float64{
		"C": 1.0,
		"A": 1.0,
		"B": 1.0,
	})
	assert.Equal(t, []string{"A", "B"}, out.Longs)

	// 맵 순회 순서와 무관해야 하므로 반복 검증
	for i := 0; i < 10; i++ {
		again := sel.Select(map[string]float64{"C": 1.0, "A": 1.0, "B": 1.0})
		assert.Equal(t, out.Longs, again.Longs)
	}
}

func TestSelect_InsufficientCandidates(t *testing.T) {
	sel := NewSelector(5, 3, logger.NewNop())

	out := sel.Select(map[string]float64{"A": 1.0, "B": 2.0})

	assert.Equal(t, []string{"A", "B"}, out.Longs)
	assert.Empty(t, out.Shorts)
	assert.Len(t, out.Warnings, 2, "both sides under-filled")
}

func TestSelect_ShortsDisabled(t *testing.T) {
	sel := NewSelector(1, 0, logger.NewNop())

	out := sel.Select(map[string]float64{"A": 2.0, "B": 1.0})

	assert.Equal(t, []string{"A"}, out.Longs)
	assert.Empty(t, out.Shorts)
	assert.Empty(t, out.Warnings, "bottom_n=0 is not a shortfall")
}

func TestSelect_EmptyScores(t *testing.T) {
	sel := NewSelector(3, 2, logger.NewNop())

	out := sel.Select(map[string]float64{})

	assert.Empty(t, out.Longs)
	assert.Empty(t, out.Shorts)
	assert.NotEmpty(t, out.Warnings)
}
