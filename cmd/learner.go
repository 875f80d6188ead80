package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/engine"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/ui/theme"
)

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a new learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		level, _ := cmd.Flags().GetString("level")
		goals, _ := cmd.Flags().GetStringSlice("goals")

		a, err := openApp(cmd, openOptions{services: true})
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.engine.Register(cmd.Context(), engine.RegisterRequest{
			ID:              id,
			Name:            args[0],
			ExperienceLevel: progress.ExperienceLevel(level),
			Goals:           goals,
		})
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderRegistered(rec))
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <learner-id> [event-json]",
	Short: "Apply a learner event",
	Long: "Apply one learner event. The event is a JSON object tagged by kind, e.g.\n" +
		`  pylearn submit ada '{"kind":"lesson_completed","lesson_id":"lesson_1","points":10}'` + "\n" +
		"With no event argument, or \"-\", the event is read from stdin.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		if len(args) == 2 && args[1] != "-" {
			raw = []byte(args[1])
		} else {
			if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
				return errors.New("no event given: pass JSON as an argument or pipe it on stdin")
			}
			b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			raw = b
		}
		ev, err := progress.DecodeEvent(raw)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, openOptions{services: true})
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.engine.ApplyEvent(cmd.Context(), args[0], ev)
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderOutcome(out))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <learner-id>",
	Short: "Delete a learner's record, backups and leaderboard entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintf(cmd.ErrOrStderr(), "This permanently deletes learner %q. Re-run with --yes to confirm.\n", args[0])
			return nil
		}

		a, err := openApp(cmd, openOptions{services: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.DeleteLearner(cmd.Context(), args[0]); err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), theme.Good.Render("Deleted ")+args[0])
		return nil
	},
}

func init() {
	registerCmd.Flags().String("id", "", "Learner ID (default: random UUID)")
	registerCmd.Flags().String("level", string(progress.CompleteBeginner), "Experience level: "+strings.Join(experienceLevels(), ", "))
	registerCmd.Flags().StringSlice("goals", nil, "Learning goals (comma separated)")

	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}

func experienceLevels() []string {
	return []string{
		string(progress.CompleteBeginner),
		string(progress.SomeExperience),
		string(progress.Intermediate),
		string(progress.Advanced),
		string(progress.Expert),
	}
}

// stdinIsTerminal reports whether stdin is attached to a terminal.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
