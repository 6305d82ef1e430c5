package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
)

const tradingDaysPerYear = 252.0

// summarize computes headline performance metrics from the value series
// and the trade log.
func summarize(out *contracts.RunOutput, cfg engine.Config, returns []float64) contracts.PerformanceSummary {
	sum := contracts.PerformanceSummary{
		TradingDays:    len(out.States),
		RebalanceCount: out.RebalanceCount,
		TotalTrades:    len(out.Trades),
	}
	if len(out.States) == 0 {
		return sum
	}

	final := out.States[len(out.States)-1].Total
	sum.TotalReturn = final/cfg.InitialCapital - 1

	years := float64(len(out.States)) / tradingDaysPerYear
	if years > 0 {
		sum.AnnualizedReturn = sum.TotalReturn / years
		if final > 0 {
			sum.CAGR = math.Pow(final/cfg.InitialCapital, 1/years) - 1
		}
	}

	// Drop the leading NaN before distribution stats.
	clean := make([]float64, 0, len(returns))
	downside := make([]float64, 0)
	for _, r := range returns {
		if math.IsNaN(r) {
			continue
		}
		clean = append(clean, r)
		if r < 0 {
			downside = append(downside, r)
		}
	}

	if len(clean) > 1 {
		sum.Volatility = stat.StdDev(clean, nil) * math.Sqrt(tradingDaysPerYear)
	}
	if sum.Volatility > 0 {
		sum.SharpeRatio = sum.AnnualizedReturn / sum.Volatility
	}
	if len(downside) > 1 {
		dd := stat.StdDev(downside, nil) * math.Sqrt(tradingDaysPerYear)
		if dd > 0 {
			sum.SortinoRatio = sum.AnnualizedReturn / dd
		}
	}

	sum.MaxDrawdown = maxDrawdown(out.States)
	sum.WinningTrades, sum.LosingTrades = countWins(out.Trades)
	if closed := sum.WinningTrades + sum.LosingTrades; closed > 0 {
		sum.WinRate = float64(sum.WinningTrades) / float64(closed)
	}

	return sum
}

// maxDrawdown is the deepest peak-to-trough decline of the value series.
func maxDrawdown(states []contracts.PortfolioState) float64 {
	if len(states) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := states[0].Total
	for _, s := range states {
		if s.Total > peak {
			peak = s.Total
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - s.Total) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// countWins pairs each close with its opening fill to classify realized
// round trips. Costs on both legs are charged against the trip.
func countWins(trades []contracts.Trade) (wins, losses int) {
	lastOpen := make(map[string]contracts.Trade)

	for _, t := range trades {
		if t.Action == contracts.ActionOpen {
			lastOpen[t.Symbol] = t
			continue
		}

		open, ok := lastOpen[t.Symbol]
		if !ok {
			continue
		}
		delete(lastOpen, t.Symbol)

		var gross float64
		if t.Side == contracts.SideLong {
			gross = (t.Price - open.Price) * t.Quantity
		} else {
			gross = (open.Price - t.Price) * t.Quantity
		}
		pnl := gross - open.TotalCost() - t.TotalCost()

		if pnl > 0 {
			wins++
		} else if pnl < 0 {
			losses++
		}
	}
	return wins, losses
}
