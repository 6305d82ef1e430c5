package costs

// Pure cost formulas.
// ⭐ SSOT: 거래 비용 계산은 이 패키지에서만
// All functions are stateless and side-effect free: identical input yields
// identical output regardless of call order. The chunked runner relies on
// this when it replays cost computations across chunk boundaries.

// Commission returns max(amount*rate, minCommission).
func Commission(amount, rate, minCommission float64) float64 {
	c := amount * rate
	if c < minCommission {
		return minCommission
	}
	return c
}

// StampTax returns amount*rate when the tax applies, else 0.
// 거래세는 처분 시에만: 롱 매도, 숏 환매수. 진입 시에는 부과되지 않음.
func StampTax(amount, rate float64, applies bool) float64 {
	if !applies {
		return 0
	}
	return amount * rate
}

// Slippage returns amount*rate. Applied on both entry and exit.
func Slippage(amount, rate float64) float64 {
	return amount * rate
}

// MarginInterest returns simple (non-compounding) borrow interest on a
// short position: notional * annualRate * days / 365.
func MarginInterest(shortNotional float64, daysHeld int, annualRate float64) float64 {
	return shortNotional * annualRate * float64(daysHeld) / 365.0
}
