package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	paramsFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Aegis Backtest - 포트폴리오 백테스팅 엔진",
	Long: `Aegis Backtest CLI

시그널 기반 롱/숏 포트폴리오 시뮬레이터.
일별 가격/시그널 테이블 위에서 리밸런싱, 비용, 증거금까지 재현.

Usage:
  go run ./cmd/backtest [command]

Examples:
  go run ./cmd/backtest run --from 2023-01-01 --to 2023-12-31
  go run ./cmd/backtest grid --top-ns 5,10,20 --holds 5,20
  go run ./cmd/backtest fetch 005930 000660
  go run ./cmd/backtest api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&paramsFile, "params", "", "backtest parameter YAML (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
