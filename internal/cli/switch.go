package cli

import (
	"context"
	"fmt"

	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/luminacoach/sessionsync/internal/localcache"
	"github.com/luminacoach/sessionsync/internal/reconciler"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch <session-id>",
	Short: "Resume a stored session",
	Long: `Replace the widget's current local state with a stored session.

The cache is cleared under the session key prefix, the chosen record's value
is seeded back, and the widget must be restarted to pick it up. Prints the
resume path to open.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		cfg, logger, err := loadSetup()
		if err != nil {
			return err
		}

		store := client.New(cfg.Agent.ServerURL, cfg.Agent.Token)
		sessions, err := store.List(context.Background())
		if err != nil {
			return err
		}
		rec, ok := sessions[sessionID]
		if !ok {
			return fmt.Errorf("no stored session with ID %q", sessionID)
		}

		cache, err := localcache.New(cfg.Agent.CacheDir, cfg.Agent.CachePrefix, logger)
		if err != nil {
			return err
		}

		sw := reconciler.NewSwitcher(cache, cfg.Agent.DefaultProjectID, func(resumePath string) error {
			fmt.Println("Session seeded. Restart the widget and open:", resumePath)
			return nil
		}, logger)

		return sw.SwitchTo(sessionID, rec)
	},
}

func init() {
	rootCmd.AddCommand(switchCmd)
}
