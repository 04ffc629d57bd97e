package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/luminacoach/sessionsync/internal/localcache"
	"github.com/luminacoach/sessionsync/internal/reconciler"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync agent",
	Long: `Run the reconciliation loop: an initial full scan, a bounded wait for the
widget to populate the cache, then cache change events interleaved with a
periodic scan until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSetup()
		if err != nil {
			return err
		}

		cache, err := localcache.New(cfg.Agent.CacheDir, cfg.Agent.CachePrefix, logger)
		if err != nil {
			return err
		}

		watcher, err := localcache.NewWatcher(cache, logger)
		if err != nil {
			return err
		}

		store := client.New(cfg.Agent.ServerURL, cfg.Agent.Token)
		rec := reconciler.New(cache, store, reconciler.Options{
			PollInterval:       cfg.Agent.PollInterval(),
			WidgetWaitInterval: cfg.Agent.WidgetWaitInterval(),
			WidgetWaitAttempts: cfg.Agent.WidgetWaitAttempts,
			AuthCooldown:       cfg.Agent.AuthCooldown(),
		}, logger)
		rec.OnRegistered(func() {
			logger.Info("new session registered, session list is stale")
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("cache watcher stopped", "error", err)
			}
		}()

		logger.Info("sync agent started",
			"cache_dir", cfg.Agent.CacheDir,
			"prefix", cfg.Agent.CachePrefix,
			"server", cfg.Agent.ServerURL)

		if err := rec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("sync agent stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
