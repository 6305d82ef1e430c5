package report

import (
	"math"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
)

// Aggregate assembles the final Result from raw simulator output.
// ⭐ SSOT: 결과 집계는 여기서만 (청크/무청크 공통)
func Aggregate(out *contracts.RunOutput, cfg engine.Config) *contracts.Result {
	res := &contracts.Result{
		States:       out.States,
		Trades:       out.Trades,
		Warnings:     out.Warnings,
		DailyReturns: dailyReturns(out.States),
	}

	res.Costs = costSummary(out, cfg)
	res.Summary = summarize(out, cfg, res.DailyReturns)
	return res
}

// dailyReturns computes total[t]/total[t-1] - 1; the first value is NaN.
func dailyReturns(states []contracts.PortfolioState) []float64 {
	returns := make([]float64, len(states))
	for i := range states {
		if i == 0 || states[i-1].Total == 0 {
			returns[i] = math.NaN()
			continue
		}
		returns[i] = states[i].Total/states[i-1].Total - 1
	}
	return returns
}

// costSummary totals every cost bucket and derives turnover and drag.
func costSummary(out *contracts.RunOutput, cfg engine.Config) contracts.CostSummary {
	var cs contracts.CostSummary

	tradedNotional := 0.0
	for _, t := range out.Trades {
		cs.TotalCommission += t.Commission
		cs.TotalStampTax += t.StampTax
		cs.TotalSlippage += t.SlippageCost
		tradedNotional += t.Notional()
	}
	if n := len(out.States); n > 0 {
		cs.TotalMarginInterest = out.States[n-1].ShortInterest

		// 편도 거래대금 기준 연환산 회전율
		oneWay := tradedNotional / 2
		cs.AnnualTurnoverRate = oneWay / cfg.InitialCapital * tradingDaysPerYear / float64(n)
	}

	totalCosts := cs.TotalCommission + cs.TotalStampTax + cs.TotalSlippage + cs.TotalMarginInterest
	cs.CostDrag = totalCosts / cfg.InitialCapital
	return cs
}
