package engine

import (
	"github.com/wonny/aegis-backtest/internal/calendar"
	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/costs"
)

// Config holds all backtest parameters.
// ⭐ SSOT: 백테스트 파라미터 스키마는 여기서만
type Config struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`

	// Costs
	CommissionRate  float64 `yaml:"commission_rate" json:"commission_rate"`
	MinCommission   float64 `yaml:"min_commission" json:"min_commission"`
	StampTaxRate    float64 `yaml:"stamp_tax_rate" json:"stamp_tax_rate"`
	SlippageRate    float64 `yaml:"slippage_rate" json:"slippage_rate"`
	MarginRatio     float64 `yaml:"margin_ratio" json:"margin_ratio"`
	ShortMarginRate float64 `yaml:"short_margin_rate" json:"short_margin_rate"`

	// Strategy shape
	TopN          int    `yaml:"top_n" json:"top_n"`
	BottomN       int    `yaml:"bottom_n" json:"bottom_n"` // 0이면 공매도 비활성화
	HoldingPeriod int    `yaml:"holding_period" json:"holding_period"`
	RebalanceFreq string `yaml:"rebalance_freq" json:"rebalance_freq"` // D | W | M

	// ChunkSizeDays bounds peak memory; 0 runs unchunked.
	ChunkSizeDays int `yaml:"chunk_size_days" json:"chunk_size_days"`
}

// Validate checks the configuration before the simulation loop starts.
// 실패는 전부 ConfigError (fatal)
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return contracts.ConfigError{Field: "initial_capital", Message: "must be > 0"}
	}
	if c.CommissionRate < 0 {
		return contracts.ConfigError{Field: "commission_rate", Message: "must be >= 0"}
	}
	if c.MinCommission < 0 {
		return contracts.ConfigError{Field: "min_commission", Message: "must be >= 0"}
	}
	if c.StampTaxRate < 0 {
		return contracts.ConfigError{Field: "stamp_tax_rate", Message: "must be >= 0"}
	}
	if c.SlippageRate < 0 {
		return contracts.ConfigError{Field: "slippage_rate", Message: "must be >= 0"}
	}
	if c.MarginRatio <= 0 || c.MarginRatio > 1 {
		return contracts.ConfigError{Field: "margin_ratio", Message: "must be in (0, 1]"}
	}
	if c.ShortMarginRate < 0 {
		return contracts.ConfigError{Field: "short_margin_rate", Message: "must be >= 0"}
	}
	if c.TopN < 0 || c.BottomN < 0 {
		return contracts.ConfigError{Field: "top_n/bottom_n", Message: "must be >= 0"}
	}
	if c.TopN == 0 && c.BottomN == 0 {
		return contracts.ConfigError{Field: "top_n/bottom_n", Message: "nothing to trade"}
	}
	if c.HoldingPeriod < 1 {
		return contracts.ConfigError{Field: "holding_period", Message: "must be >= 1 trading day"}
	}
	if _, err := calendar.ParseFrequency(c.RebalanceFreq); err != nil {
		return err
	}
	if c.ChunkSizeDays < 0 {
		return contracts.ConfigError{Field: "chunk_size_days", Message: "must be >= 0"}
	}
	return nil
}

// CostModel builds the standard cost schedule for this config.
func (c Config) CostModel() costs.Model {
	return costs.NewStandard(c.CommissionRate, c.MinCommission, c.StampTaxRate, c.SlippageRate, c.ShortMarginRate)
}

// DefaultConfig returns a sane KRX-flavored parameter set.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  100_000_000,
		CommissionRate:  0.00015,
		MinCommission:   0,
		StampTaxRate:    0.0018,
		SlippageRate:    0.001,
		MarginRatio:     0.4,
		ShortMarginRate: 0.025,
		TopN:            10,
		BottomN:         0,
		HoldingPeriod:   5,
		RebalanceFreq:   "W",
	}
}
