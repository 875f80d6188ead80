package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/report"
	"github.com/abhisek/pylearn/internal/ui/theme"
)

var exportCmd = &cobra.Command{
	Use:   "export <learner-id>",
	Short: "Export a learner dashboard as an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = args[0] + ".xlsx"
		}

		a, err := openApp(cmd, openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		id := args[0]
		rec, err := a.engine.Record(ctx, id)
		if err != nil {
			return err
		}
		dash, err := a.engine.Dashboard(ctx, id)
		if err != nil {
			return err
		}
		ach, err := a.engine.Achievements(ctx, id)
		if err != nil {
			return err
		}
		due, err := a.engine.DueReviews(ctx, id)
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		err = report.Write(f, report.Input{
			Dashboard:    dash,
			Achievements: ach,
			Reviews:      due,
			Quizzes:      rec.QuizAttempts,
			GeneratedAt:  time.Now().UTC(),
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), theme.Good.Render("Wrote ")+out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default <learner-id>.xlsx)")
}
