package contracts

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is an immutable date×symbol matrix of float64 values.
// ⭐ SSOT: 가격/시그널 테이블 표현은 이 타입으로만
// Rows are trading dates (ascending, unique), columns are symbols.
// NaN marks a missing value (비거래일/미커버 종목).
// Frames are read-only after construction; the engine never mutates them,
// so a single Frame can be shared across concurrent runs.
type Frame struct {
	dates   []time.Time
	symbols []string
	values  [][]float64 // [dateIdx][symbolIdx]

	symIdx  map[string]int
	dateIdx map[int64]int // unix day → row
}

// NewFrame builds a Frame from parallel slices.
// dates must be strictly ascending; values must be len(dates)×len(symbols).
// Symbols are re-sorted ascending so iteration order is deterministic.
func NewFrame(dates []time.Time, symbols []string, values [][]float64) (*Frame, error) {
	if len(values) != len(dates) {
		return nil, fmt.Errorf("frame: %d rows for %d dates", len(values), len(dates))
	}

	// Normalize and verify date ordering
	normDates := make([]time.Time, len(dates))
	for i, d := range dates {
		normDates[i] = Day(d)
		if i > 0 && !normDates[i-1].Before(normDates[i]) {
			return nil, fmt.Errorf("frame: dates not strictly ascending at index %d", i)
		}
	}

	// Sort symbols, remap columns
	order := make([]int, len(symbols))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return symbols[order[i]] < symbols[order[j]] })

	sortedSyms := make([]string, len(symbols))
	symIdx := make(map[string]int, len(symbols))
	for newCol, oldCol := range order {
		sym := symbols[oldCol]
		if _, dup := symIdx[sym]; dup {
			return nil, fmt.Errorf("frame: duplicate symbol %s", sym)
		}
		sortedSyms[newCol] = sym
		symIdx[sym] = newCol
	}

	rows := make([][]float64, len(normDates))
	dateIdx := make(map[int64]int, len(normDates))
	for r := range normDates {
		if len(values[r]) != len(symbols) {
			return nil, fmt.Errorf("frame: row %d has %d columns, want %d", r, len(values[r]), len(symbols))
		}
		row := make([]float64, len(symbols))
		for newCol, oldCol := range order {
			row[newCol] = values[r][oldCol]
		}
		rows[r] = row
		dateIdx[normDates[r].Unix()] = r
	}

	return &Frame{
		dates:   normDates,
		symbols: sortedSyms,
		values:  rows,
		symIdx:  symIdx,
		dateIdx: dateIdx,
	}, nil
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Dates returns the trading dates in ascending order.
// Callers must treat the returned slice as read-only.
func (f *Frame) Dates() []time.Time {
	return f.dates
}

// Symbols returns the symbol columns in ascending order.
func (f *Frame) Symbols() []string {
	return f.symbols
}

// NumDates returns the number of rows.
func (f *Frame) NumDates() int {
	return len(f.dates)
}

// IsEmpty reports whether the frame has no rows or no columns.
func (f *Frame) IsEmpty() bool {
	return f == nil || len(f.dates) == 0 || len(f.symbols) == 0
}

// At returns the value for (date, symbol).
// ok is false when the date or symbol is not in the frame, or the cell is NaN.
func (f *Frame) At(date time.Time, symbol string) (float64, bool) {
	r, okRow := f.dateIdx[Day(date).Unix()]
	c, okCol := f.symIdx[symbol]
	if !okRow || !okCol {
		return math.NaN(), false
	}
	v := f.values[r][c]
	if math.IsNaN(v) {
		return v, false
	}
	return v, true
}

// Row returns all non-NaN values for a date as symbol → value.
// Returns nil when the date is not in the frame.
func (f *Frame) Row(date time.Time) map[string]float64 {
	r, ok := f.dateIdx[Day(date).Unix()]
	if !ok {
		return nil
	}

	out := make(map[string]float64, len(f.symbols))
	for c, sym := range f.symbols {
		v := f.values[r][c]
		if math.IsNaN(v) {
			continue
		}
		out[sym] = v
	}
	return out
}

// HasDate reports whether the frame contains the given trading date.
func (f *Frame) HasDate(date time.Time) bool {
	_, ok := f.dateIdx[Day(date).Unix()]
	return ok
}
