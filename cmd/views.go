package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/adaptive"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/engine"
	"github.com/abhisek/pylearn/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats <learner-id>",
	Short: "Show learning statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.engine.Dashboard(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderDashboard(d))
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <learner-id>",
	Short: "Show the adaptive learning path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goals, _ := cmd.Flags().GetStringSlice("goals")
		style, _ := cmd.Flags().GetString("style")
		limit, _ := cmd.Flags().GetInt("limit")
		profile, _ := cmd.Flags().GetBool("profile-goals")

		a, err := openApp(cmd, openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.engine.LearningPath(cmd.Context(), args[0], adaptive.PathRequest{
			Goals:           goals,
			Style:           style,
			Limit:           limit,
			UseProfileGoals: profile,
		})
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderPath(p))
		return nil
	},
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews <learner-id>",
	Short: "List concepts due for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		due, err := a.engine.DueReviews(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderReviews(due))
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top learners by points",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd, openOptions{services: true})
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.engine.Leaderboard(cmd.Context(), limit)
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderLeaderboard(rows))
		return nil
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily [YYYY-MM-DD]",
	Short: "Show the daily challenge",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		date := a.engine.Today()
		if len(args) == 1 {
			date = clock.Date(args[0])
		}
		dc, err := a.engine.DailyChallenge(date)
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderDailyChallenge(dc))
		return nil
	},
}

func init() {
	pathCmd.Flags().StringSlice("goals", nil, "Goals to plan for")
	pathCmd.Flags().Bool("profile-goals", true, "Without --goals, plan for the learner's registered goals (false orders by difficulty only)")
	pathCmd.Flags().String("style", "", "Preferred learning style")
	pathCmd.Flags().Int("limit", 10, "Maximum number of items")

	leaderboardCmd.Flags().Int("limit", engine.DefaultLeaderboardLimit, "Number of learners to show")
}
