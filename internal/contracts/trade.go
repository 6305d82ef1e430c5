package contracts

import "time"

// Side represents the direction of a position
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Action represents what a trade did to a position
type Action string

const (
	ActionOpen  Action = "OPEN"
	ActionClose Action = "CLOSE"
)

// Trade is one executed fill in the simulation.
// ⭐ 계약: 기록 후 불변, 거래 로그는 append-only
type Trade struct {
	Date         time.Time `json:"date"`
	Symbol       string    `json:"symbol"`
	Action       Action    `json:"action"`
	Side         Side      `json:"side"`
	Price        float64   `json:"price"`
	Quantity     float64   `json:"quantity"`
	Commission   float64   `json:"commission"`
	StampTax     float64   `json:"stamp_tax"`
	SlippageCost float64   `json:"slippage_cost"`
}

// Notional returns the traded amount before costs.
func (t Trade) Notional() float64 {
	return t.Price * t.Quantity
}

// TotalCost returns the sum of all transaction costs on this fill.
func (t Trade) TotalCost() float64 {
	return t.Commission + t.StampTax + t.SlippageCost
}
