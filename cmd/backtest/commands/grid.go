package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/runner"
	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/database"
	"github.com/wonny/aegis-backtest/pkg/logger"
	"github.com/wonny/aegis-backtest/pkg/redis"
)

// gridCmd represents the grid command
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "파라미터 그리드 탐색",
	Long: `(top_n, holding_period) 조합별로 백테스트를 병렬 실행합니다.

동일 설정의 재실행은 Redis 캐시에서 바로 반환됩니다.

Flags:
  --from      시작 날짜 (YYYY-MM-DD, 필수)
  --to        종료 날짜 (YYYY-MM-DD, 기본: 오늘)
  --top-ns    top_n 후보 (쉼표 구분, 기본: 5,10,20)
  --holds     holding_period 후보 (쉼표 구분, 기본: 5,20)
  --workers   동시 실행 수 (기본: 4)
  --no-cache  Redis 캐시 비활성화

Example:
  go run ./cmd/backtest grid --from 2023-01-01 --to 2023-12-31
  go run ./cmd/backtest grid --from 2023-01-01 --top-ns 5,10,20,50 --holds 5,10,20 --workers 8`,
	RunE: runGrid,
}

var (
	gridFrom    string
	gridTo      string
	gridTopNs   string
	gridHolds   string
	gridWorkers int
	gridNoCache bool
)

func init() {
	rootCmd.AddCommand(gridCmd)

	// Flags
	gridCmd.Flags().StringVar(&gridFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 필수)")
	gridCmd.Flags().StringVar(&gridTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	gridCmd.Flags().StringVar(&gridTopNs, "top-ns", "5,10,20", "top_n 후보 (쉼표 구분)")
	gridCmd.Flags().StringVar(&gridHolds, "holds", "5,20", "holding_period 후보 (쉼표 구분)")
	gridCmd.Flags().IntVar(&gridWorkers, "workers", 4, "동시 실행 수")
	gridCmd.Flags().BoolVar(&gridNoCache, "no-cache", false, "Redis 캐시 비활성화")

	gridCmd.MarkFlagRequired("from")
}

func runGrid(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Backtest Grid Search ===")

	ctx := cmd.Context()

	from, to, err := parseDateRange(gridFrom, gridTo)
	if err != nil {
		return err
	}

	topNs, err := parseIntList(gridTopNs)
	if err != nil {
		return fmt.Errorf("invalid --top-ns: %w", err)
	}
	holds, err := parseIntList(gridHolds)
	if err != nil {
		return fmt.Errorf("invalid --holds: %w", err)
	}

	base, err := loadBacktestParams()
	if err != nil {
		return fmt.Errorf("load backtest params: %w", err)
	}

	tasks := runner.Grid(*base, topNs, holds)

	fmt.Printf("\n📅 Period: %s ~ %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("🔢 Combinations: %d (workers: %d)\n\n", len(tasks), gridWorkers)

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

	prices, err := dataRepo.LoadPriceFrame(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	scores, err := dataRepo.LoadSignalFrame(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("load signals: %w", err)
	}

	var cache *redis.Cache
	if !gridNoCache {
		rdb, err := redis.New(cfg, log)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, running without cache")
		} else {
			defer rdb.Close()
			cache = redis.NewCache(rdb, "backtest")
		}
	}

	r := runner.New(prices, scores, gridWorkers, cache, log)
	results := r.RunAll(ctx, tasks)

	printGridResults(results)
	return nil
}

func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func printGridResults(results []runner.TaskResult) {
	// Sharpe 내림차순으로 정렬해 출력
	sorted := make([]runner.TaskResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := -1e18, -1e18
		if sorted[i].Result != nil {
			si = sorted[i].Result.Summary.SharpeRatio
		}
		if sorted[j].Result != nil {
			sj = sorted[j].Result.Summary.SharpeRatio
		}
		return si > sj
	})

	fmt.Println("\n✅ Grid Search Completed")
	PrintDoubleSeparator()
	fmt.Printf("%-16s  %12s  %8s  %8s  %8s  %6s\n",
		"Name", "Final", "Return", "Sharpe", "MDD", "Cache")
	PrintSeparator()

	for _, res := range sorted {
		if res.Err != nil {
			fmt.Printf("%-16s  failed: %v\n", res.Name, res.Err)
			continue
		}
		cached := ""
		if res.Cached {
			cached = "hit"
		}
		fmt.Printf("%-16s  %12s  %8s  %8.2f  %7.2f%%  %6s\n",
			res.Name,
			formatWon(res.Result.FinalTotal()),
			formatPercent(res.Result.Summary.TotalReturn),
			res.Result.Summary.SharpeRatio,
			res.Result.Summary.MaxDrawdown*100,
			cached)
	}
	PrintDoubleSeparator()
	fmt.Println()
}
