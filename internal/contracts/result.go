package contracts

// CostSummary breaks down everything the strategy paid.
type CostSummary struct {
	TotalCommission     float64 `json:"total_commission"`
	TotalStampTax       float64 `json:"total_stamp_tax"`
	TotalSlippage       float64 `json:"total_slippage"`
	TotalMarginInterest float64 `json:"total_margin_interest"`

	// AnnualTurnoverRate: 연환산 회전율 (편도 거래대금 / 초기자본 기준)
	AnnualTurnoverRate float64 `json:"annual_turnover_rate"`
	// CostDrag: 총 비용 / 초기자본
	CostDrag float64 `json:"cost_drag"`
}

// PerformanceSummary holds the headline metrics computed from the
// portfolio value series and the trade log.
type PerformanceSummary struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	CAGR             float64 `json:"cagr"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`

	TradingDays    int `json:"trading_days"`
	RebalanceCount int `json:"rebalance_count"`
	TotalTrades    int `json:"total_trades"`
	WinningTrades  int `json:"winning_trades"`
	LosingTrades   int `json:"losing_trades"`
}

// Result is the final output handed to the performance-analysis side.
// ⭐ 계약: 청크 실행과 일반 실행은 동일한 Result 형태를 반환
type Result struct {
	States       []PortfolioState   `json:"portfolio_value"`
	DailyReturns []float64          `json:"daily_returns"` // first value NaN
	Trades       []Trade            `json:"trades"`
	Costs        CostSummary        `json:"cost_analysis"`
	Summary      PerformanceSummary `json:"summary"`
	Warnings     []string           `json:"warnings"`
}

// FinalTotal returns the last snapshot's total value, or 0 for an empty run.
func (r *Result) FinalTotal() float64 {
	if len(r.States) == 0 {
		return 0
	}
	return r.States[len(r.States)-1].Total
}
