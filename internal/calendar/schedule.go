package calendar

import (
	"time"

	"github.com/wonny/aegis-backtest/internal/contracts"
)

// Frequency is a rebalance frequency code.
// 닫힌 집합: D/W/M 외의 값은 ConfigError
type Frequency string

const (
	FreqDaily   Frequency = "D"
	FreqWeekly  Frequency = "W"
	FreqMonthly Frequency = "M"
)

// ParseFrequency validates a frequency code.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FreqDaily, FreqWeekly, FreqMonthly:
		return Frequency(s), nil
	default:
		return "", contracts.ConfigError{Field: "rebalance_freq", Message: "must be one of D, W, M"}
	}
}

// Schedule computes the rebalance dates implied by the trading calendar.
// ⭐ SSOT: 리밸런싱 일정 계산은 여기서만
// Pure and deterministic: the output is strictly ascending and always a
// subset of the input dates.
//   - D: every trading date
//   - W: the last trading date of each ISO week (금요일 휴장 시 그 주 마지막 거래일)
//   - M: the last trading date of each calendar month
func Schedule(tradingDates []time.Time, freq Frequency) ([]time.Time, error) {
	switch freq {
	case FreqDaily, FreqWeekly, FreqMonthly:
	default:
		return nil, contracts.ConfigError{Field: "rebalance_freq", Message: "must be one of D, W, M"}
	}

	if len(tradingDates) == 0 {
		return []time.Time{}, nil
	}

	if freq == FreqDaily {
		out := make([]time.Time, len(tradingDates))
		for i, d := range tradingDates {
			out[i] = contracts.Day(d)
		}
		return out, nil
	}

	// W/M: keep the last date of each bucket. Dates come in ascending, so a
	// bucket change means the previous date closed its bucket.
	out := make([]time.Time, 0, len(tradingDates))
	prev := contracts.Day(tradingDates[0])
	for _, raw := range tradingDates[1:] {
		d := contracts.Day(raw)
		if bucketKey(d, freq) != bucketKey(prev, freq) {
			out = append(out, prev)
		}
		prev = d
	}
	// The final date always closes its bucket.
	out = append(out, prev)

	return out, nil
}

// bucketKey groups a date by ISO week or calendar month.
func bucketKey(d time.Time, freq Frequency) int {
	if freq == FreqWeekly {
		year, week := d.ISOWeek()
		return year*100 + week
	}
	return d.Year()*100 + int(d.Month())
}
