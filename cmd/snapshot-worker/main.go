package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"contas/internal/cache"
	"contas/internal/cli"
	"contas/internal/config"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/services"
)

func main() {
	month := flag.String("month", "", "snapshot this YYYY-MM once and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentScheduler)
	logger.Info("Starting snapshot-worker")

	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) error { return c.ValidateWorker(false) })

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	householdCache := cache.NewLRUCache[string](1000, cfg.HouseholdCacheTTL)
	salary := services.NewSalaryService(res.Store, res.Store, householdCache)
	snapshots := services.NewSnapshotService(res.Store, salary, res.Store, res.Publisher)

	if *month != "" {
		ym, err := core.ParseYearMonth(*month)
		if err != nil {
			logger.Error("Invalid -month", applog.FieldError, err)
			os.Exit(2)
		}
		stored, err := snapshots.SnapshotMonth(ctx, ym)
		if err != nil {
			logger.Error("Snapshot run failed", applog.FieldError, err, "stored", stored)
			os.Exit(1)
		}
		logger.Info("Snapshot run complete", applog.FieldYearMonth, ym.String(), "stored", stored)
		return
	}

	run := func() {
		runCtx, runCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer runCancel()
		stored, err := snapshots.SnapshotCurrentMonth(runCtx)
		if err != nil {
			logger.Error("Scheduled snapshot run failed", applog.FieldError, err, "stored", stored)
			return
		}
		logger.Info("Scheduled snapshot run complete", "stored", stored)
	}

	// Snapshots are upserts, so catching up on startup is safe.
	logger.Info("Running initial snapshot...")
	run()

	c := cron.New()
	if _, err := c.AddFunc(cfg.SnapshotCron, run); err != nil {
		logger.Error("Invalid snapshot schedule", applog.FieldError, err, "cron", cfg.SnapshotCron)
		os.Exit(1)
	}
	c.Start()
	logger.Info("Snapshot scheduler started", "cron", cfg.SnapshotCron)

	<-ctx.Done()

	logger.Info("Shutting down snapshot-worker...")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Snapshot-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
