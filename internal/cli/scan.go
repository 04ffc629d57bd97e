package cli

import (
	"context"

	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/luminacoach/sessionsync/internal/localcache"
	"github.com/luminacoach/sessionsync/internal/reconciler"
	"github.com/spf13/cobra"
)

var (
	scanSessionName string
	scanProjectID   string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one forced reconciliation pass",
	Long: `Reconcile every current cache entry against the session store once,
bypassing the turn-count fast path, then exit.

With --session-name, the next conversation registered under --project gets
that name. This is the explicit "new session" action; sessions discovered by
background sync stay nameless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSetup()
		if err != nil {
			return err
		}

		cache, err := localcache.New(cfg.Agent.CacheDir, cfg.Agent.CachePrefix, logger)
		if err != nil {
			return err
		}

		store := client.New(cfg.Agent.ServerURL, cfg.Agent.Token)
		rec := reconciler.New(cache, store, reconciler.Options{
			AuthCooldown: cfg.Agent.AuthCooldown(),
		}, logger)

		if scanSessionName != "" {
			projectID := scanProjectID
			if projectID == "" {
				projectID = cfg.Agent.DefaultProjectID
			}
			rec.NameNextSession(projectID, scanSessionName)
		}

		rec.Scan(context.Background(), true)
		rec.Wait()
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSessionName, "session-name", "", "Name to attach to the next registered session")
	scanCmd.Flags().StringVar(&scanProjectID, "project", "", "Project the name applies to (default from config)")
	rootCmd.AddCommand(scanCmd)
}
