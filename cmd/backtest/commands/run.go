package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-backtest/internal/btconfig"
	"github.com/wonny/aegis-backtest/internal/contracts"
	"github.com/wonny/aegis-backtest/internal/engine"
	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/report"
	"github.com/wonny/aegis-backtest/internal/signals"
	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/database"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "백테스트 실행",
	Long: `저장된 가격/시그널 데이터로 단일 백테스트를 실행합니다.

Flags:
  --from          시작 날짜 (YYYY-MM-DD, 필수)
  --to            종료 날짜 (YYYY-MM-DD, 기본: 오늘)
  --symbols       종목 코드 목록 (쉼표 구분, 기본: 전체)
  --auto-signals  DB 시그널 대신 모멘텀 점수를 즉석 계산
  --save          결과를 DB에 저장

Example:
  go run ./cmd/backtest run --from 2023-01-01 --to 2023-12-31
  go run ./cmd/backtest run --from 2023-01-01 --params strategy.yaml --save
  go run ./cmd/backtest run --from 2023-01-01 --symbols 005930,000660 --auto-signals`,
	RunE: runBacktest,
}

var (
	runFrom        string
	runTo          string
	runSymbols     string
	runAutoSignals bool
	runSave        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringVar(&runFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	runCmd.Flags().StringVar(&runTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	runCmd.Flags().StringVar(&runSymbols, "symbols", "", "종목 코드 목록 (쉼표 구분)")
	runCmd.Flags().BoolVar(&runAutoSignals, "auto-signals", false, "모멘텀 점수를 즉석 계산")
	runCmd.Flags().BoolVar(&runSave, "save", false, "결과를 DB에 저장")

	runCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Backtest Engine ===")

	ctx := cmd.Context()

	from, to, err := parseDateRange(runFrom, runTo)
	if err != nil {
		return err
	}

	btCfg, err := loadBacktestParams()
	if err != nil {
		return fmt.Errorf("load backtest params: %w", err)
	}

	fmt.Printf("\n📅 Period: %s ~ %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("💰 Initial Capital: %s원\n", formatWon(btCfg.InitialCapital))
	fmt.Printf("🔄 Rebalance: %s, hold %d days\n", btCfg.RebalanceFreq, btCfg.HoldingPeriod)
	fmt.Printf("🎯 Selection: top %d / bottom %d\n\n", btCfg.TopN, btCfg.BottomN)

	// Initialize dependencies
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	dataRepo := marketdata.NewRepository(db.Pool)

	var symbols []string
	if runSymbols != "" {
		symbols = strings.Split(runSymbols, ",")
	}

	prices, err := dataRepo.LoadPriceFrame(ctx, from, to, symbols)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	var scores *contracts.Frame
	if runAutoSignals {
		builder := signals.NewMomentumBuilder(20, 5, log)
		scores, err = builder.Build(prices)
		if err != nil {
			return fmt.Errorf("build momentum scores: %w", err)
		}
	} else {
		scores, err = dataRepo.LoadSignalFrame(ctx, from, to, symbols)
		if err != nil {
			return fmt.Errorf("load signals: %w", err)
		}
	}

	fmt.Printf("🗓  Trading days: %d\n", engine.TradingDaysBetween(prices.Dates(), from, to))
	fmt.Println("🚀 Starting backtest...")
	started := time.Now()

	out, err := engine.Run(ctx, prices, scores, *btCfg, log)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	res := report.Aggregate(out, *btCfg)
	printResult(res, *btCfg, time.Since(started))

	if runSave {
		hash, err := btconfig.Hash(*btCfg)
		if err != nil {
			return fmt.Errorf("hash config: %w", err)
		}
		runRepo := report.NewRepository(db.Pool)
		id, err := runRepo.Save(ctx, report.NewRunRecord(hash, *btCfg, res))
		if err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Result saved (run #%d, config %s)", id, hash[:12]))
	}

	return nil
}

// loadBacktestParams returns the YAML-configured parameters, or defaults
// when no --params file was given.
func loadBacktestParams() (*engine.Config, error) {
	if paramsFile == "" {
		cfg := engine.DefaultConfig()
		return &cfg, nil
	}
	cfg, _, err := btconfig.Load(paramsFile)
	return cfg, err
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	to := time.Now()
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", toStr, fromStr)
	}
	return from, to, nil
}

func printResult(res *contracts.Result, cfg engine.Config, elapsed time.Duration) {
	fmt.Println("\n✅ Backtest Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	// Summary
	fmt.Println("📊 Summary")
	if len(res.States) > 0 {
		first := res.States[0].Date
		last := res.States[len(res.States)-1].Date
		fmt.Printf("Period: %s ~ %s (%d trading days)\n",
			first.Format("2006-01-02"), last.Format("2006-01-02"), len(res.States))
	}
	fmt.Printf("Rebalances: %d times\n", res.Summary.RebalanceCount)
	fmt.Printf("Duration: %.2f seconds\n", elapsed.Seconds())
	fmt.Println()

	// Performance
	fmt.Println("💰 Performance")
	fmt.Printf("Initial Capital: %s원\n", formatWon(cfg.InitialCapital))
	fmt.Printf("Final Capital:   %s원\n", formatWon(res.FinalTotal()))
	fmt.Printf("P&L:             %s원 (%s)\n",
		formatWon(res.FinalTotal()-cfg.InitialCapital),
		formatPercent(res.Summary.TotalReturn))
	fmt.Println()

	fmt.Printf("Annual Return:   %s\n", formatPercent(res.Summary.AnnualizedReturn))
	fmt.Printf("CAGR:            %s\n", formatPercent(res.Summary.CAGR))
	fmt.Printf("Volatility:      %.2f%%\n", res.Summary.Volatility*100)
	fmt.Println()

	// Risk Metrics
	fmt.Println("📉 Risk Metrics")
	fmt.Printf("Sharpe Ratio:    %.2f", res.Summary.SharpeRatio)
	if res.Summary.SharpeRatio > 2.0 {
		fmt.Print(" ✅ (Good)")
	} else if res.Summary.SharpeRatio > 1.0 {
		fmt.Print(" ⚠️  (Fair)")
	} else {
		fmt.Print(" ❌ (Poor)")
	}
	fmt.Println()
	fmt.Printf("Sortino Ratio:   %.2f\n", res.Summary.SortinoRatio)
	fmt.Printf("Max Drawdown:    %.2f%%\n", res.Summary.MaxDrawdown*100)
	fmt.Println()

	// Trading Metrics
	fmt.Println("💹 Trading Metrics")
	fmt.Printf("Total Trades:    %d\n", res.Summary.TotalTrades)
	fmt.Printf("Winning Trades:  %d (%.1f%%)\n", res.Summary.WinningTrades, res.Summary.WinRate*100)
	fmt.Printf("Losing Trades:   %d\n", res.Summary.LosingTrades)
	fmt.Println()

	// Costs
	fmt.Println("💸 Costs")
	fmt.Printf("Commission:      %s원\n", formatWon(res.Costs.TotalCommission))
	fmt.Printf("Stamp Tax:       %s원\n", formatWon(res.Costs.TotalStampTax))
	fmt.Printf("Slippage:        %s원\n", formatWon(res.Costs.TotalSlippage))
	fmt.Printf("Margin Interest: %s원\n", formatWon(res.Costs.TotalMarginInterest))
	fmt.Printf("Turnover (ann.): %.2fx\n", res.Costs.AnnualTurnoverRate)
	fmt.Printf("Cost Drag:       %.2f%%\n", res.Costs.CostDrag*100)
	fmt.Println()

	// Equity Curve (last 10 points)
	fmt.Println("📈 Equity Curve (Last 10 Days)")
	startIdx := len(res.States) - 10
	if startIdx < 0 {
		startIdx = 0
	}
	for i := startIdx; i < len(res.States); i++ {
		st := res.States[i]
		fmt.Printf("%s: %s원 (%s)\n",
			st.Date.Format("2006-01-02"), formatWon(st.Total), formatPercent(res.DailyReturns[i]))
	}
	fmt.Println()

	// Warnings
	if len(res.Warnings) > 0 {
		PrintWarning(fmt.Sprintf("%d warnings during run", len(res.Warnings)))
		max := len(res.Warnings)
		if max > 5 {
			max = 5
		}
		for _, w := range res.Warnings[:max] {
			fmt.Printf("   • %s\n", w)
		}
		if len(res.Warnings) > 5 {
			fmt.Printf("   ... and %d more\n", len(res.Warnings)-5)
		}
		fmt.Println()
	}
}
