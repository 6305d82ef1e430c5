package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/marketdata/naver"
	"github.com/wonny/aegis-backtest/internal/signals"
	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/database"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [symbols...]",
	Short: "일별 시세 수집",
	Long: `네이버 금융에서 일별 시세를 수집해 DB에 저장합니다.

종목 코드를 인자로 주지 않으면 DB에 이미 저장된 전 종목을 갱신합니다.

Flags:
  --from     시작 날짜 (YYYY-MM-DD, 기본: 1년 전)
  --to       종료 날짜 (YYYY-MM-DD, 기본: 오늘)
  --scores   수집 후 모멘텀 점수 재계산

Example:
  go run ./cmd/backtest fetch 005930 000660
  go run ./cmd/backtest fetch --from 2022-01-01 --scores
  go run ./cmd/backtest fetch 005930 --from 2023-01-01 --to 2023-12-31`,
	RunE: runFetch,
}

var (
	fetchFrom   string
	fetchTo     string
	fetchScores bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 기본: 1년 전)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	fetchCmd.Flags().BoolVar(&fetchScores, "scores", false, "수집 후 모멘텀 점수 재계산")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Backtest Data Fetcher ===")

	ctx := cmd.Context()

	to := time.Now()
	from := to.AddDate(-1, 0, 0)
	var err error
	if fetchFrom != "" {
		from, err = time.Parse("2006-01-02", fetchFrom)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
	}
	if fetchTo != "" {
		to, err = time.Parse("2006-01-02", fetchTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

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

	repo := marketdata.NewRepository(db.Pool)
	fetcher := naver.NewClient(cfg.Naver, log)

	symbols := args
	if len(symbols) == 0 {
		symbols, err = repo.ListSymbols(ctx)
		if err != nil {
			return fmt.Errorf("list symbols: %w", err)
		}
		if len(symbols) == 0 {
			PrintWarning("No symbols given and none stored yet")
			return nil
		}
	}

	fmt.Printf("\n📅 Period: %s ~ %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("📦 Symbols: %d\n\n", len(symbols))

	for i, sym := range symbols {
		name, err := fetcher.FetchStockName(ctx, sym)
		if err != nil {
			name = "?"
		}

		prices, err := fetcher.FetchDailyPrices(ctx, sym, from, to)
		if err != nil {
			PrintError(fmt.Sprintf("%s (%s): fetch failed: %v", sym, name, err))
			continue
		}
		if err := repo.SavePrices(ctx, prices); err != nil {
			return fmt.Errorf("save prices for %s: %w", sym, err)
		}

		fmt.Printf("[Fetch] %s (%s): %d rows [%d/%d]\n", sym, name, len(prices), i+1, len(symbols))
	}

	if fetchScores {
		fmt.Println("\n🧮 Rebuilding momentum scores...")

		prices, err := repo.LoadPriceFrame(ctx, from, to, nil)
		if err != nil {
			return fmt.Errorf("load price frame: %w", err)
		}
		builder := signals.NewMomentumBuilder(20, 5, log)
		frame, err := builder.Build(prices)
		if err != nil {
			return fmt.Errorf("build scores: %w", err)
		}
		scores := signals.Flatten(frame)
		if err := repo.SaveScores(ctx, scores); err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
		PrintSuccess(fmt.Sprintf("%d scores saved", len(scores)))
	}

	fmt.Println()
	PrintSuccess("Fetch completed")
	return nil
}
