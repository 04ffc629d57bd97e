package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/luminacoach/sessionsync/internal/api"
	"github.com/luminacoach/sessionsync/internal/client"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	projectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	Long:  `List the sessions registered in the session store for this account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSetup()
		if err != nil {
			return err
		}

		store := client.New(cfg.Agent.ServerURL, cfg.Agent.Token)
		sessions, err := store.List(context.Background())
		if err != nil {
			return err
		}

		displaySessions(sessions)
		return nil
	},
}

func displaySessions(sessions map[string]api.SessionRecord) {
	if len(sessions) == 0 {
		fmt.Println(headerStyle.Render("No sessions found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	fmt.Println()

	records := make([]api.SessionRecord, 0, len(sessions))
	for _, rec := range sessions {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Project")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = "Untitled"
		}
		if len(name) > 40 {
			name = name[:37] + "..."
		}

		project := rec.ProjectID
		if len(project) > 20 {
			project = project[:17] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(rec.ExternalSessionID)),
			nameStyle.Render(name),
			projectStyle.Render(project),
			statusStyle.Render(string(rec.Status)),
			dateStyle.Render(relativeTime(rec.UpdatedAt)))
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("Tip: use the full session ID with ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("sessionsync switch <session-id>"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
