package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/aegis-backtest/internal/book"
	"github.com/wonny/aegis-backtest/internal/calendar"
	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/costs"
	"github.com/wonny/aegis-backtest/internal/selection"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// State is the simulator lifecycle state.
type State string

const (
	StateInitialized State = "INITIALIZED"
	StateRunning     State = "RUNNING"
	StateCompleted   State = "COMPLETED"
	StateFailed      State = "FAILED"
)

// Simulator replays the signal matrix through the strategy day by day.
// ⭐ SSOT: 백테스팅 시뮬레이션 루프는 여기서만
// A simulator is single-threaded and owns its book; price/signal frames are
// read-only and may be shared across concurrent simulators.
type Simulator struct {
	prices  *contracts.Frame
	signals *contracts.Frame
	cfg     Config

	model    costs.Model
	selector *selection.Selector
	book     *book.Book
	logger   *logger.Logger

	dates []time.Time
	rebal map[int64]bool
	state State
}

// New creates a fully validated simulator over the whole price calendar.
// Fatal problems (bad config, unusable data) surface here, before the loop.
func New(prices, signals *contracts.Frame, cfg Config, log *logger.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateInputs(prices, signals); err != nil {
		return nil, err
	}

	freq, _ := calendar.ParseFrequency(cfg.RebalanceFreq)
	schedule, err := calendar.Schedule(prices.Dates(), freq)
	if err != nil {
		return nil, err
	}
	rebal := make(map[int64]bool, len(schedule))
	for _, d := range schedule {
		rebal[d.Unix()] = true
	}

	model := cfg.CostModel()
	return &Simulator{
		prices:   prices,
		signals:  signals,
		cfg:      cfg,
		model:    model,
		selector: selection.NewSelector(cfg.TopN, cfg.BottomN, log),
		book:     book.New(cfg.InitialCapital, cfg.MarginRatio, model, log),
		logger:   log,
		dates:    prices.Dates(),
		rebal:    rebal,
		state:    StateInitialized,
	}, nil
}

// newSeeded creates a simulator over a sub-span of the calendar, carrying
// a previous span's book. Used by the chunked runner; inputs are assumed
// validated and the rebalance set precomputed on the FULL calendar so that
// chunk boundaries never shift weekly/monthly buckets.
func newSeeded(prices, signals *contracts.Frame, cfg Config, bk *book.Book, rebal map[int64]bool, dates []time.Time, log *logger.Logger) *Simulator {
	return &Simulator{
		prices:   prices,
		signals:  signals,
		cfg:      cfg,
		model:    cfg.CostModel(),
		selector: selection.NewSelector(cfg.TopN, cfg.BottomN, log),
		book:     bk,
		logger:   log,
		dates:    dates,
		rebal:    rebal,
		state:    StateInitialized,
	}
}

// validateInputs checks the input tables are usable at all.
func validateInputs(prices, signals *contracts.Frame) error {
	if prices.IsEmpty() {
		return contracts.DataError{Reason: "price table is empty"}
	}
	if signals.IsEmpty() {
		return contracts.DataError{Reason: "signal table is empty"}
	}
	for _, sym := range prices.Symbols() {
		for _, s := range signals.Symbols() {
			if sym == s {
				return nil
			}
		}
	}
	return contracts.DataError{Reason: "no symbol overlap between prices and signals"}
}

// State returns the current lifecycle state.
func (s *Simulator) State() State { return s.state }

// Book exposes the ledger for chunk carry-over and tests.
func (s *Simulator) Book() *book.Book { return s.book }

// Run executes the daily loop over the simulator's date span.
//
// Per trading day:
//  1. mark open positions to the day's closes
//  2. on a rebalance date: close holding-period-expired positions, select
//     targets, open new positions equal-weighted on total portfolio value
//  3. accrue one day of short borrow interest
//  4. append the end-of-day snapshot
//
// Non-fatal conditions (insufficient candidates or cash, missing prices,
// close of an unknown symbol) become warnings; only context cancellation
// aborts mid-run.
func (s *Simulator) Run(ctx context.Context) (*contracts.RunOutput, error) {
	s.state = StateRunning
	out := &contracts.RunOutput{
		States:   make([]contracts.PortfolioState, 0, len(s.dates)),
		Trades:   make([]contracts.Trade, 0),
		Warnings: make([]string, 0),
	}

	for _, d := range s.dates {
		if err := ctx.Err(); err != nil {
			s.state = StateFailed
			return nil, err
		}

		closes := s.prices.Row(d)
		s.book.MarkToMarket(closes)

		if s.rebal[contracts.Day(d).Unix()] {
			out.RebalanceCount++
			s.rebalance(d, closes, out)
		}

		s.book.AccrueShortInterest()
		s.book.TickHeldDays()

		out.States = append(out.States, s.book.Snapshot(d))
	}

	s.state = StateCompleted
	return out, nil
}

// rebalance performs one rebalance event: expiry closes, selection, opens.
func (s *Simulator) rebalance(d time.Time, closes map[string]float64, out *contracts.RunOutput) {
	day := d.Format("2006-01-02")

	// 1. Close positions whose holding period is up.
	for _, sym := range s.book.ExpiredSymbols(s.cfg.HoldingPeriod) {
		px, ok := closes[sym]
		if !ok {
			// No close today: settle at the last mark.
			pos, _ := s.book.Get(sym)
			px = pos.MarketValue() / pos.Quantity
		}
		trade, err := s.book.Close(sym, px, d)
		if err != nil {
			var invalid contracts.InvalidOperationError
			if errors.As(err, &invalid) {
				msg := fmt.Sprintf("%s %s: close skipped (%s)", day, sym, invalid.Op)
				out.Warnings = append(out.Warnings, msg)
				s.logger.WithField("symbol", sym).Warn(msg)
				continue
			}
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: close failed: %v", day, sym, err))
			continue
		}
		out.Trades = append(out.Trades, trade)
	}

	// 2. Select targets from the day's score cross-section.
	sel := s.selector.Select(s.signals.Row(d))
	for _, w := range sel.Warnings {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", day, w))
	}

	// 3. Open new positions, equal-weighted on total portfolio value so
	// short proceeds leverage is sized consistently.
	targetCount := len(sel.Longs) + len(sel.Shorts)
	if targetCount == 0 {
		return
	}
	weightCapital := s.book.TotalValue() / float64(targetCount)

	s.openTargets(d, sel.Longs, contracts.SideLong, weightCapital, closes, out)
	s.openTargets(d, sel.Shorts, contracts.SideShort, weightCapital, closes, out)
}

// openTargets opens every newly targeted symbol not already held.
func (s *Simulator) openTargets(d time.Time, symbols []string, side contracts.Side, weightCapital float64, closes map[string]float64, out *contracts.RunOutput) {
	day := d.Format("2006-01-02")

	for _, sym := range symbols {
		if s.book.Has(sym) {
			continue
		}

		px, ok := closes[sym]
		if !ok || px <= 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: no price, open skipped", day, sym))
			continue
		}

		qty := math.Floor(weightCapital / px)
		if qty < 1 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: weight below one share, open skipped", day, sym))
			continue
		}

		trade, err := s.book.Open(sym, side, qty, px, d)
		if err != nil {
			if errors.Is(err, book.ErrInsufficientCash) {
				msg := fmt.Sprintf("%s %s: insufficient cash, open skipped", day, sym)
				out.Warnings = append(out.Warnings, msg)
				s.logger.WithFields(map[string]interface{}{
					"symbol": sym,
					"side":   string(side),
				}).Warn(msg)
				continue
			}
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s %s: open failed: %v", day, sym, err))
			continue
		}
		out.Trades = append(out.Trades, trade)
	}
}
