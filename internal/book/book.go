package book

import (
	"errors"
	"sort"
	"time"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/costs"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// ErrInsufficientCash signals that an open would overdraw the ledger.
// 치명적 오류가 아님: 시뮬레이터가 경고로 전환하고 해당 종목만 건너뜀
var ErrInsufficientCash = errors.New("insufficient cash")

// Position is one open holding. Owned exclusively by the Book:
// created on Open, mutated on mark/accrual, destroyed on Close.
type Position struct {
	Symbol     string
	Side       contracts.Side
	Quantity   float64
	EntryPrice float64
	EntryDate  time.Time

	// AccruedInterest is unpaid short borrow interest (Short only).
	// It is a liability until Close settles it against cash.
	AccruedInterest float64

	// HeldDays counts trading days since entry, entry day included.
	HeldDays int

	lastPrice      float64
	marginReserved float64
}

// MarketValue returns the position's current marked notional.
func (p *Position) MarketValue() float64 {
	return p.Quantity * p.lastPrice
}

// Book owns current holdings and cash.
// ⭐ SSOT: 포지션/현금 원장은 이 타입에서만 변경
// Invariant: TotalValue() == Cash + LongValue - ShortValue at all times,
// where ShortValue includes unpaid accrued interest.
type Book struct {
	cash        float64
	positions   map[string]*Position
	model       costs.Model
	marginRatio float64
	logger      *logger.Logger

	longValue   float64
	shortValue  float64
	cumInterest float64
}

// New creates a book with opening cash.
func New(initialCash, marginRatio float64, model costs.Model, log *logger.Logger) *Book {
	return &Book{
		cash:        initialCash,
		positions:   make(map[string]*Position),
		model:       model,
		marginRatio: marginRatio,
		logger:      log,
	}
}

// Has reports whether a symbol is currently held.
func (b *Book) Has(symbol string) bool {
	_, ok := b.positions[symbol]
	return ok
}

// Symbols returns held symbols in ascending order.
func (b *Book) Symbols() []string {
	syms := make([]string, 0, len(b.positions))
	for s := range b.positions {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// Positions returns value copies of all open positions, sorted by symbol.
func (b *Book) Positions() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, sym := range b.Symbols() {
		out = append(out, *b.positions[sym])
	}
	return out
}

// Get returns a value copy of one open position.
func (b *Book) Get(symbol string) (Position, bool) {
	pos, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Cash returns the current cash balance.
func (b *Book) Cash() float64 { return b.cash }

// LongValue returns the marked value of long positions.
func (b *Book) LongValue() float64 { return b.longValue }

// ShortValue returns the short liability (marked notional + unpaid interest).
func (b *Book) ShortValue() float64 { return b.shortValue }

// CumulativeInterest returns total short interest accrued since the start.
func (b *Book) CumulativeInterest() float64 { return b.cumInterest }

// TotalValue returns cash + long value - short liability.
func (b *Book) TotalValue() float64 {
	return b.cash + b.longValue - b.shortValue
}

// marginReservedTotal sums margin held against open shorts.
func (b *Book) marginReservedTotal() float64 {
	total := 0.0
	for _, p := range b.positions {
		total += p.marginReserved
	}
	return total
}

// AvailableCash returns cash not locked as short margin.
// 신규 진입 가능 여부 판단용
func (b *Book) AvailableCash() float64 {
	return b.cash - b.marginReservedTotal()
}

// Open creates a position and records the opening fill.
// Long opens deduct cash; short opens credit proceeds and reserve
// margin per the configured margin ratio. Stamp tax never applies on open.
// Returns ErrInsufficientCash (non-fatal) when the ledger cannot fund it.
func (b *Book) Open(symbol string, side contracts.Side, quantity, price float64, date time.Time) (contracts.Trade, error) {
	if b.Has(symbol) {
		return contracts.Trade{}, contracts.InvalidOperationError{Op: "open: already held", Symbol: symbol}
	}
	if quantity <= 0 || price <= 0 {
		return contracts.Trade{}, contracts.InvalidOperationError{Op: "open: non-positive quantity or price", Symbol: symbol}
	}

	notional := quantity * price
	commission := b.model.Commission(notional)
	slippage := b.model.Slippage(notional)

	pos := &Position{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		EntryPrice: price,
		EntryDate:  contracts.Day(date),
		lastPrice:  price,
	}

	switch side {
	case contracts.SideLong:
		cost := notional + commission + slippage
		if cost > b.AvailableCash() {
			return contracts.Trade{}, ErrInsufficientCash
		}
		b.cash -= cost

	case contracts.SideShort:
		margin := notional * b.marginRatio
		// Proceeds land in cash; margin must still be coverable afterwards.
		if margin+commission+slippage > b.AvailableCash()+notional {
			return contracts.Trade{}, ErrInsufficientCash
		}
		b.cash += notional - commission - slippage
		pos.marginReserved = margin

	default:
		return contracts.Trade{}, contracts.InvalidOperationError{Op: "open: unknown side", Symbol: symbol}
	}

	b.positions[symbol] = pos
	b.recompute()

	return contracts.Trade{
		Date:         contracts.Day(date),
		Symbol:       symbol,
		Action:       contracts.ActionOpen,
		Side:         side,
		Price:        price,
		Quantity:     quantity,
		Commission:   commission,
		StampTax:     0,
		SlippageCost: slippage,
	}, nil
}

// Close realizes the position at the given price, settles accrued interest
// against cash, releases margin, and records the closing fill.
// Stamp tax applies on disposal: long sell and short buy-to-cover.
func (b *Book) Close(symbol string, price float64, date time.Time) (contracts.Trade, error) {
	pos, ok := b.positions[symbol]
	if !ok {
		return contracts.Trade{}, contracts.InvalidOperationError{Op: "close: not held", Symbol: symbol}
	}

	notional := pos.Quantity * price
	commission := b.model.Commission(notional)
	slippage := b.model.Slippage(notional)
	stampTax := b.model.StampTax(notional, true)

	switch pos.Side {
	case contracts.SideLong:
		b.cash += notional - commission - stampTax - slippage
	case contracts.SideShort:
		b.cash -= notional + commission + stampTax + slippage
		b.cash -= pos.AccruedInterest
		// Margin reservation disappears with the position.
	}

	delete(b.positions, symbol)
	b.recompute()

	return contracts.Trade{
		Date:         contracts.Day(date),
		Symbol:       symbol,
		Action:       contracts.ActionClose,
		Side:         pos.Side,
		Price:        price,
		Quantity:     pos.Quantity,
		Commission:   commission,
		StampTax:     stampTax,
		SlippageCost: slippage,
	}, nil
}

// MarkToMarket refreshes position marks from the day's close prices.
// Cash does not move. A held symbol missing from prices keeps its last mark.
func (b *Book) MarkToMarket(prices map[string]float64) {
	for _, pos := range b.positions {
		if px, ok := prices[pos.Symbol]; ok && px > 0 {
			pos.lastPrice = px
		}
	}
	b.recompute()
}

// AccrueShortInterest adds one trading day of borrow interest to every
// open short. The liability reduces total value immediately but is only
// paid from cash at close. Interest is simple, on entry notional.
func (b *Book) AccrueShortInterest() {
	for _, sym := range b.Symbols() {
		pos := b.positions[sym]
		if pos.Side != contracts.SideShort {
			continue
		}
		interest := b.model.MarginInterest(pos.Quantity*pos.EntryPrice, 1)
		pos.AccruedInterest += interest
		b.cumInterest += interest
	}
	b.recompute()
}

// TickHeldDays counts the current trading day for every open position.
func (b *Book) TickHeldDays() {
	for _, pos := range b.positions {
		pos.HeldDays++
	}
}

// ExpiredSymbols returns held symbols whose holding period is up, sorted.
func (b *Book) ExpiredSymbols(holdingPeriod int) []string {
	out := make([]string, 0)
	for _, sym := range b.Symbols() {
		if b.positions[sym].HeldDays >= holdingPeriod {
			out = append(out, sym)
		}
	}
	return out
}

// Snapshot captures the end-of-day portfolio state.
func (b *Book) Snapshot(date time.Time) contracts.PortfolioState {
	return contracts.PortfolioState{
		Date:          contracts.Day(date),
		Cash:          b.cash,
		LongValue:     b.longValue,
		ShortValue:    b.shortValue,
		ShortInterest: b.cumInterest,
		Total:         b.TotalValue(),
	}
}

// recompute rebuilds the marked long/short aggregates.
func (b *Book) recompute() {
	long, short := 0.0, 0.0
	for _, pos := range b.positions {
		switch pos.Side {
		case contracts.SideLong:
			long += pos.MarketValue()
		case contracts.SideShort:
			short += pos.MarketValue() + pos.AccruedInterest
		}
	}
	b.longValue = long
	b.shortValue = short
}
