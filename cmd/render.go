package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/pylearn/internal/adaptive"
	"github.com/abhisek/pylearn/internal/engine"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
	"github.com/abhisek/pylearn/internal/store"
	"github.com/abhisek/pylearn/internal/ui/components"
	"github.com/abhisek/pylearn/internal/ui/theme"
)

const barWidth = 40

func renderRegistered(rec *progress.Record) string {
	return strings.Join([]string{
		theme.Good.Render("Registered ") + theme.Value.Render(rec.Name),
		components.KeyValues([]components.KV{
			{Key: "ID", Value: rec.ID},
			{Key: "Experience", Value: string(rec.ExperienceLevel)},
			{Key: "Goals", Value: strings.Join(rec.LearningGoals, ", ")},
		}),
	}, "\n")
}

func renderOutcome(o *engine.Outcome) string {
	var b strings.Builder
	if o.AlreadyCompleted {
		b.WriteString(theme.Warn.Render("Already completed, no points awarded"))
		b.WriteByte('\n')
	}
	b.WriteString(components.KeyValues([]components.KV{
		{Key: "Event", Value: string(o.Kind)},
		{Key: "Points earned", Value: theme.Points.Render("+" + strconv.Itoa(o.PointsEarned))},
		{Key: "Achievement points", Value: strconv.Itoa(o.AchievementPoints)},
		{Key: "Total points", Value: strconv.Itoa(o.TotalPoints)},
		{Key: "Level", Value: strconv.Itoa(o.NewLevel)},
		{Key: "To next level", Value: strconv.Itoa(o.PointsToNextLevel)},
	}))
	if o.LevelChanged {
		b.WriteString("\n" + theme.Good.Render(fmt.Sprintf("Level up! Now level %d", o.NewLevel)))
	}
	for _, a := range o.NewAchievements {
		b.WriteString("\n" + theme.Good.Render("Unlocked ") + a.Name + theme.Hint.Render(fmt.Sprintf(" (+%d)", a.Reward)))
	}
	for _, u := range o.NextReviewUpdates {
		b.WriteString("\n" + theme.Label.Render("Next review of ") + u.ConceptID + " " + formatTime(u.NextReviewAt))
	}
	if len(o.HealedConcepts) > 0 {
		b.WriteString("\n" + theme.Warn.Render("Reset corrupt review state: "+strings.Join(o.HealedConcepts, ", ")))
	}
	return b.String()
}

func renderDashboard(d *engine.Dashboard) string {
	s := d.Stats
	sections := []string{
		theme.Title.Render(d.Name) + theme.Subtitle.Render("  "+d.LearnerID),
		components.NewProgressBar(
			fmt.Sprintf("Level %d", s.Level),
			progress.LevelProgress(s.Points),
			true,
			barWidth,
		).View(),
		components.KeyValues([]components.KV{
			{Key: "Points", Value: theme.Points.Render(strconv.Itoa(s.Points))},
			{Key: "To next level", Value: strconv.Itoa(s.PointsToNextLevel)},
			{Key: "Streak", Value: streakText(d.CurrentStreak, d.NextStreakMilestone)},
			{Key: "Lessons", Value: strconv.Itoa(s.LessonsCompleted)},
			{Key: "Quizzes", Value: fmt.Sprintf("%d passed / %d taken, avg %.1f%%", s.QuizzesCompleted, s.QuizzesTaken, s.AverageQuizScore)},
			{Key: "Challenges", Value: strconv.Itoa(s.ChallengesCompleted)},
			{Key: "Projects", Value: strconv.Itoa(s.ProjectsCompleted)},
			{Key: "Achievements", Value: strconv.Itoa(s.Achievements)},
			{Key: "Time spent", Value: fmt.Sprintf("%.1f h", d.Time.TotalHours)},
			{Key: "Efficiency", Value: d.Efficiency.Rating},
			{Key: "Trend", Value: d.Trend.Direction},
			{Key: "Reviews due", Value: fmt.Sprintf("%d of %d tracked", d.Reviews.Due, d.Reviews.Tracked)},
			{Key: "Completion", Value: d.Completion.Message},
		}),
	}

	if len(d.Skills) > 0 {
		rows := make([][]string, len(d.Skills))
		for i, a := range d.Skills {
			rows[i] = []string{a.Name, fmt.Sprintf("%d/%d", a.Completed, a.Total), fmt.Sprintf("%.1f%%", a.Percentage)}
		}
		sections = append(sections, components.Table([]string{"Skill area", "Done", "Progress"}, rows))
	}

	if len(d.Recommendations) > 0 {
		lines := []string{theme.Title.Render("Recommendations")}
		for _, r := range d.Recommendations {
			lines = append(lines, fmt.Sprintf("%s %s %s", priorityMark(string(r.Priority)), theme.Value.Render(r.Title), theme.Hint.Render(r.Message)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func streakText(days, next int) string {
	s := fmt.Sprintf("%d day", days)
	if days != 1 {
		s += "s"
	}
	if next > 0 {
		s += theme.Hint.Render(fmt.Sprintf("  next milestone %d", next))
	}
	return s
}

func priorityMark(p string) string {
	switch p {
	case "high":
		return theme.Bad.Render("!")
	case "medium":
		return theme.Warn.Render("•")
	}
	return theme.Label.Render("·")
}

func renderPath(p adaptive.Path) string {
	header := theme.Title.Render("Learning path") +
		theme.Subtitle.Render(fmt.Sprintf("  skill %.2f, target %s", p.Skill, p.TargetDifficulty))
	if len(p.Items) == 0 {
		return header + "\n" + theme.Hint.Render("Nothing left to recommend.")
	}
	rows := make([][]string, len(p.Items))
	for i, it := range p.Items {
		title := it.Title
		if it.Deadlocked {
			title += " (prerequisites unavailable)"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			it.ID,
			string(it.Kind),
			title,
			string(it.Difficulty),
			strconv.Itoa(it.EstimatedMinutes) + "m",
			strconv.Itoa(it.Points),
		}
	}
	out := header + "\n" + components.Table([]string{"#", "ID", "Kind", "Title", "Difficulty", "Time", "Points"}, rows)
	for _, m := range p.MissingPrerequisites {
		out += "\n" + theme.Warn.Render(fmt.Sprintf("%s requires missing %s", m.ActivityID, m.PrerequisiteID))
	}
	return out
}

func renderReviews(due []spacedrep.DueConcept) string {
	if len(due) == 0 {
		return theme.Good.Render("No reviews due.")
	}
	rows := make([][]string, len(due))
	for i, d := range due {
		rows[i] = []string{
			d.ConceptID,
			strconv.Itoa(d.Stage),
			fmt.Sprintf("%.0f%%", d.LastPerformance*100),
			fmt.Sprintf("%.2f", d.Priority),
			formatTime(d.NextReviewAt),
		}
	}
	return components.Table([]string{"Concept", "Stage", "Last", "Priority", "Due since"}, rows)
}

func renderLeaderboard(rows []store.LeaderboardEntry) string {
	if len(rows) == 0 {
		return theme.Hint.Render("No learners yet.")
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			strconv.Itoa(i + 1),
			r.Name,
			strconv.Itoa(r.Points),
			strconv.Itoa(r.Level),
			strconv.Itoa(r.Streak),
			strconv.Itoa(r.AchievementsCount),
		}
	}
	return components.Table([]string{"Rank", "Learner", "Points", "Level", "Streak", "Achievements"}, out)
}

func renderDailyChallenge(dc *engine.DailyChallenge) string {
	return theme.Card.Render(strings.Join([]string{
		theme.Title.Render("Daily challenge") + theme.Subtitle.Render("  "+string(dc.Date)),
		theme.Value.Render(dc.Title) + theme.Hint.Render("  "+dc.ChallengeID),
		components.KeyValues([]components.KV{
			{Key: "Difficulty", Value: string(dc.Difficulty)},
			{Key: "Reward", Value: theme.Points.Render(strconv.Itoa(dc.RewardPoints) + " pts")},
		}),
	}, "\n"))
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
