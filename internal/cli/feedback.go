package cli

import (
	"context"
	"fmt"

	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/spf13/cobra"
)

var (
	feedbackRating  string
	feedbackComment string
	feedbackList    bool
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <session-id>",
	Short: "Rate a stored session, or show its ratings with --list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSetup()
		if err != nil {
			return err
		}

		ctx := context.Background()
		store := client.New(cfg.Agent.ServerURL, cfg.Agent.Token)

		if feedbackList {
			entries, err := store.ListFeedback(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No feedback for this session.")
				return nil
			}
			for _, entry := range entries {
				line := fmt.Sprintf("%s  %s", dateStyle.Render(relativeTime(entry.CreatedAt)), statusStyle.Render(entry.Rating))
				if entry.Comment != "" {
					line += "  " + nameStyle.Render(entry.Comment)
				}
				fmt.Println(line)
			}
			return nil
		}

		if err := store.SubmitFeedback(ctx, args[0], feedbackRating, feedbackComment); err != nil {
			return err
		}
		fmt.Println("Feedback recorded.")
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackRating, "rating", "positive", "Rating: positive or negative")
	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "Optional free-form comment")
	feedbackCmd.Flags().BoolVar(&feedbackList, "list", false, "Show existing feedback instead of submitting")
	rootCmd.AddCommand(feedbackCmd)
}
