package main

import (
	"os"

	"github.com/wonny/aegis-backtest/cmd/backtest/commands"
)

// main is the entry point for the backtest CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/backtest [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
