package contracts

import "time"

// PortfolioState is the end-of-day snapshot of the ledger.
// ⭐ SSOT: 일별 스냅샷 스키마는 여기서만
// ShortValue is the full short liability: marked notional plus unpaid
// accrued borrow interest, so the accounting identity
//
//	Total == Cash + LongValue - ShortValue
//
// holds exactly at every snapshot. ShortInterest reports the cumulative
// interest accrued since the start of the run.
type PortfolioState struct {
	Date          time.Time `json:"date"`
	Cash          float64   `json:"cash"`
	LongValue     float64   `json:"long_value"`
	ShortValue    float64   `json:"short_value"`
	ShortInterest float64   `json:"short_interest"`
	Total         float64   `json:"total"`
}

// RunOutput is the raw simulator output before aggregation.
// 엔진 → 리포트 단계 전달용
type RunOutput struct {
	States   []PortfolioState
	Trades   []Trade
	Warnings []string

	RebalanceCount int
}
