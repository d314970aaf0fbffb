package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skarani/doubler/internal/scan"
	"github.com/skarani/doubler/internal/scheduler"
	"github.com/skarani/doubler/internal/scheduler/jobs"
	"github.com/skarani/doubler/internal/secrets"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled scans",
	Long: `Starts the scheduler or manages its jobs.

Registered jobs:
- daily_scan: 6:30 PM on weekdays, after the market close

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job immediately

Example:
  go run ./cmd/doubler scheduler start
  go run ./cmd/doubler scheduler run daily_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
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
	fmt.Println("=== Doubler Scheduler ===")

	sched, store, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer store.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.Jobs() {
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
	sched, store, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer store.Close()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, store, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer store.Close()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous; block until the run is recorded.
	fmt.Println("Job started, waiting for completion...")
	waitForResult(sched, jobName)

	return nil
}

// waitForResult polls job history until the triggered run finishes.
func waitForResult(sched *scheduler.Scheduler, jobName string) {
	for {
		history, err := sched.History(jobName)
		if err != nil {
			return
		}
		if latest := history.Latest(); latest != nil {
			if latest.Success {
				fmt.Printf("✅ Job completed in %v\n", latest.Duration)
			} else {
				fmt.Printf("❌ Job failed: %s\n", latest.Error)
			}
			return
		}
		time.Sleep(time.Second)
	}
}

func initScheduler() (*scheduler.Scheduler, *secrets.Store, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Open the secret store
	store, err := secrets.New(cfg.Secrets, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open secret store: %w", err)
	}

	// 4. Build the history source
	source, err := scan.BuildSource(context.Background(), cfg, store, log)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("build history source: %w", err)
	}

	// 5. Load strategy parameters
	strategy, err := strategyconfig.LoadOrDefault(cfg.Scan.StrategyFile)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("load strategy: %w", err)
	}

	// 6. Create the scan service
	svc := scan.NewService(cfg, strategy, source, log)

	// 7. Create scheduler and register jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewScanJob(svc, cfg, log)); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("register scan job: %w", err)
	}

	return sched, store, nil
}
