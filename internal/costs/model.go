package costs

// Model is the pluggable cost schedule used by the position book.
// 구현체 교체는 이 인터페이스로만 (런타임 문자열 디스패치 금지)
type Model interface {
	Commission(amount float64) float64
	// StampTax taxes disposal fills only (long sell, short buy-to-cover).
	StampTax(amount float64, disposal bool) float64
	Slippage(amount float64) float64
	MarginInterest(shortNotional float64, daysHeld int) float64
}

// Standard is the default rate-based cost schedule.
type Standard struct {
	CommissionRate  float64
	MinCommission   float64
	StampTaxRate    float64
	SlippageRate    float64
	ShortMarginRate float64 // 연이율
}

// NewStandard creates a Standard cost model.
func NewStandard(commissionRate, minCommission, stampTaxRate, slippageRate, shortMarginRate float64) Standard {
	return Standard{
		CommissionRate:  commissionRate,
		MinCommission:   minCommission,
		StampTaxRate:    stampTaxRate,
		SlippageRate:    slippageRate,
		ShortMarginRate: shortMarginRate,
	}
}

func (m Standard) Commission(amount float64) float64 {
	return Commission(amount, m.CommissionRate, m.MinCommission)
}

func (m Standard) StampTax(amount float64, disposal bool) float64 {
	return StampTax(amount, m.StampTaxRate, disposal)
}

func (m Standard) Slippage(amount float64) float64 {
	return Slippage(amount, m.SlippageRate)
}

func (m Standard) MarginInterest(shortNotional float64, daysHeld int) float64 {
	return MarginInterest(shortNotional, daysHeld, m.ShortMarginRate)
}

var _ Model = Standard{}

// Free is a zero-cost schedule, useful in tests and frictionless scenarios.
type Free struct{}

func (Free) Commission(float64) float64 { return 0 }
func (Free) StampTax(float64, bool) float64 { return 0 }
func (Free) Slippage(float64) float64 { return 0 }
func (Free) MarginInterest(float64, int) float64 { return 0 }

var _ Model = Free{}
