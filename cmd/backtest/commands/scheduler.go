package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-backtest/internal/marketdata"
	"github.com/wonny/aegis-backtest/internal/marketdata/naver"
	"github.com/wonny/aegis-backtest/internal/report"
	"github.com/wonny/aegis-backtest/internal/scheduler"
	"github.com/wonny/aegis-backtest/internal/scheduler/jobs"
	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/database"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- price_sync: 평일 오후 4시 30분 (시세 수집 + 점수 재계산)
- nightly_benchmark: 평일 오후 6시 (기본 전략 벤치마크 실행)

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/backtest scheduler start
  go run ./cmd/backtest scheduler list
  go run ./cmd/backtest scheduler run price_sync`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long:  `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다. Ctrl+C로 종료.`,
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Backtest Scheduler ===")

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func initScheduler() (*scheduler.Scheduler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	dataRepo := marketdata.NewRepository(db.Pool)
	runRepo := report.NewRepository(db.Pool)
	fetcher := naver.NewClient(cfg.Naver, log)

	sched := scheduler.New(log)
	sched.AddJob(jobs.NewPriceSyncJob(fetcher, dataRepo, log))
	sched.AddJob(jobs.NewBenchmarkJob(dataRepo, runRepo, log))

	return sched, nil
}
