package signals

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// MomentumBuilder turns a price frame into a score frame: rate-of-change
// smoothed with an EMA, higher is more attractive.
// 데모/기본 시그널: 외부 알파 파이프라인 없이도 엔진을 돌릴 수 있게 함
type MomentumBuilder struct {
	lookback int // ROC 기간
	smooth   int // EMA 기간
	logger   *logger.Logger
}

// NewMomentumBuilder creates a builder; typical values are 20/5.
func NewMomentumBuilder(lookback, smooth int, log *logger.Logger) *MomentumBuilder {
	if lookback < 1 {
		lookback = 20
	}
	if smooth < 1 {
		smooth = 5
	}
	return &MomentumBuilder{lookback: lookback, smooth: smooth, logger: log}
}

// Build computes the score matrix over the same calendar and symbols as
// the price frame. Cells without enough history stay NaN.
func (b *MomentumBuilder) Build(prices *contracts.Frame) (*contracts.Frame, error) {
	dates := prices.Dates()
	symbols := prices.Symbols()

	cols := make([][]float64, len(symbols))
	for si, sym := range symbols {
		series := make([]float64, len(dates))
		valid := make([]bool, len(dates))

		// Forward-fill gaps: talib cannot handle NaN inputs.
		last := math.NaN()
		firstObs := -1
		for di, d := range dates {
			if v, ok := prices.At(d, sym); ok {
				last = v
				if firstObs < 0 {
					firstObs = di
				}
			}
			series[di] = last
			valid[di] = firstObs >= 0
		}

		col := make([]float64, len(dates))
		if firstObs < 0 || len(dates)-firstObs <= b.lookback+b.smooth {
			for di := range col {
				col[di] = math.NaN()
			}
			cols[si] = col
			continue
		}

		roc := talib.Roc(series[firstObs:], b.lookback)
		score := talib.Ema(roc, b.smooth)

		warmup := firstObs + b.lookback + b.smooth
		for di := range col {
			if di < warmup || !valid[di] {
				col[di] = math.NaN()
			} else {
				col[di] = score[di-firstObs]
			}
		}
		cols[si] = col
	}

	values := make([][]float64, len(dates))
	for di := range dates {
		row := make([]float64, len(symbols))
		for si := range symbols {
			row[si] = cols[si][di]
		}
		values[di] = row
	}

	frame, err := contracts.NewFrame(dates, symbols, values)
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(map[string]interface{}{
		"lookback": b.lookback,
		"smooth":   b.smooth,
		"symbols":  len(symbols),
		"dates":    len(dates),
	}).Info("Momentum scores built")

	return frame, nil
}

// Flatten converts a score frame into storable rows, skipping NaN cells.
func Flatten(frame *contracts.Frame) []marketdata.SignalScore {
	var out []marketdata.SignalScore
	for _, d := range frame.Dates() {
		for sym, score := range frame.Row(d) {
			out = append(out, marketdata.SignalScore{Symbol: sym, Date: d, Score: score})
		}
	}
	return out
}
