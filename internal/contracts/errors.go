package contracts

import "fmt"

// ConfigError marks invalid backtest parameters.
// 시뮬레이션 루프 시작 전에만 발생 (fatal)
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// DataError marks unusable input tables (empty, or zero symbol overlap).
// Fatal: no partial result is returned.
type DataError struct {
	Reason string
}

func (e DataError) Error() string {
	return fmt.Sprintf("data: %s", e.Reason)
}

// InvalidOperationError marks an internal-consistency failure on a single
// position (e.g. closing a symbol that is not held). The offending
// operation is skipped and logged; the run itself continues.
type InvalidOperationError struct {
	Op     string
	Symbol string
}

func (e InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation: %s %s", e.Op, e.Symbol)
}
