package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/store"
	"github.com/abhisek/pylearn/internal/ui/components"
	"github.com/abhisek/pylearn/internal/ui/theme"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent event log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")
		after, _ := cmd.Flags().GetInt64("after")

		a, err := openApp(cmd, openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.engine.EventLog(cmd.Context(), store.QueryOpts{
			LearnerID: learner,
			Kind:      kind,
			Limit:     limit,
			After:     after,
		})
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderEventLog(entries))
		return nil
	},
}

func init() {
	eventsCmd.Flags().String("learner", "", "Only this learner")
	eventsCmd.Flags().String("kind", "", "Only this entry kind (e.g. event_applied, invariant_violation)")
	eventsCmd.Flags().Int("limit", 20, "Maximum number of entries")
	eventsCmd.Flags().Int64("after", 0, "Only entries with a sequence number above this")
}

// payloadWidth truncates payloads so rows fit a terminal.
const payloadWidth = 60

func renderEventLog(entries []store.LogEntry) string {
	if len(entries) == 0 {
		return theme.Hint.Render("No events found.")
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		payload := e.Payload
		if len(payload) > payloadWidth {
			payload = payload[:payloadWidth-1] + "…"
		}
		rows[i] = []string{
			strconv.FormatInt(e.Sequence, 10),
			formatTime(e.Timestamp),
			e.LearnerID,
			e.Kind,
			payload,
		}
	}
	return components.Table([]string{"Seq", "Timestamp", "Learner", "Kind", "Payload"}, rows)
}
