package selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/aegis-backtest/pkg/logger"
)

// Selector picks rebalance targets from a single day's score cross-section.
// ⭐ SSOT: 롱/숏 종목 선정 로직은 여기서만
type Selector struct {
	topN    int
	bottomN int // 0이면 공매도 비활성화
	logger  *logger.Logger
}

// Selection is the outcome of one rebalance-day pick.
// Longs and Shorts are disjoint and sorted by symbol for reproducibility.
type Selection struct {
	Longs    []string
	Shorts   []string
	Warnings []string
}

// NewSelector creates a new selector.
func NewSelector(topN, bottomN int, log *logger.Logger) *Selector {
	return &Selector{
		topN:    topN,
		bottomN: bottomN,
		logger:  log,
	}
}

type scored struct {
	symbol string
	score  float64
}

// Select ranks the day's scores and returns top-N longs and bottom-N shorts.
// NaN scores are dropped before ranking. Ties break by symbol name
// ascending (stable across runs). Short candidates never include a symbol
// already chosen long. Fewer eligible symbols than requested is a warning,
// never an error.
func (s *Selector) Select(scores map[string]float64) Selection {
	sel := Selection{Longs: []string{}, Shorts: []string{}}

	eligible := make([]scored, 0, len(scores))
	for sym, sc := range scores {
		if math.IsNaN(sc) {
			continue
		}
		eligible = append(eligible, scored{symbol: sym, score: sc})
	}

	// Longs: descending score, symbol ascending on ties
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		return eligible[i].symbol < eligible[j].symbol
	})

	nLong := s.topN
	if len(eligible) < nLong {
		nLong = len(eligible)
		if s.topN > 0 {
			sel.Warnings = append(sel.Warnings,
				fmt.Sprintf("insufficient long candidates: want %d, eligible %d", s.topN, len(eligible)))
		}
	}

	longSet := make(map[string]bool, nLong)
	for _, e := range eligible[:nLong] {
		sel.Longs = append(sel.Longs, e.symbol)
		longSet[e.symbol] = true
	}

	// Shorts: remaining pool, ascending score, symbol ascending on ties
	if s.bottomN > 0 {
		pool := make([]scored, 0, len(eligible))
		for _, e := range eligible {
			if longSet[e.symbol] {
				continue
			}
			pool = append(pool, e)
		}
		sort.Slice(pool, func(i, j int) bool {
			if pool[i].score != pool[j].score {
				return pool[i].score < pool[j].score
			}
			return pool[i].symbol < pool[j].symbol
		})

		nShort := s.bottomN
		if len(pool) < nShort {
			nShort = len(pool)
			sel.Warnings = append(sel.Warnings,
				fmt.Sprintf("insufficient short candidates: want %d, eligible %d", s.bottomN, len(pool)))
		}
		for _, e := range pool[:nShort] {
			sel.Shorts = append(sel.Shorts, e.symbol)
		}
	}

	sort.Strings(sel.Longs)
	sort.Strings(sel.Shorts)

	for _, w := range sel.Warnings {
		s.logger.WithFields(map[string]interface{}{
			"top_n":    s.topN,
			"bottom_n": s.bottomN,
		}).Warn(w)
	}

	return sel
}
