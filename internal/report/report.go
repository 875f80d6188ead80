// Package report exports a learner dashboard as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/pylearn/internal/engine"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
)

// Sheet names, in workbook order.
const (
	SheetSummary      = "Summary"
	SheetSkills       = "Skills"
	SheetQuizzes      = "Quizzes"
	SheetAchievements = "Achievements"
	SheetReviews      = "Reviews"
)

// Input is everything a report shows.
type Input struct {
	Dashboard    *engine.Dashboard
	Achievements *engine.AchievementView
	Reviews      []spacedrep.DueConcept
	Quizzes      []progress.QuizAttempt
	GeneratedAt  time.Time
}

// Build assembles the workbook. The caller closes the returned file.
func Build(in Input) (*excelize.File, error) {
	if in.Dashboard == nil {
		return nil, fmt.Errorf("report: dashboard is required")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSkills, SheetQuizzes, SheetAchievements, SheetReviews} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &writer{f: f, header: header}
	w.summary(in)
	w.skills(in.Dashboard)
	w.quizzes(in.Quizzes)
	w.achievements(in.Achievements)
	w.reviews(in.Reviews)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write builds the workbook and writes it to out.
func Write(out io.Writer, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writer accumulates the first error so the sheet builders stay linear.
type writer struct {
	f      *excelize.File
	header int
	err    error
}

func (w *writer) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
}

func (w *writer) headerRow(sheet string, titles ...any) {
	w.row(sheet, 1, titles...)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(sheet, "A", "A", 28); err != nil {
		w.err = err
	}
}

func (w *writer) summary(in Input) {
	d := in.Dashboard
	s := d.Stats
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	w.headerRow(SheetSummary, "Metric", "Value")
	rows := [][]any{
		{"Learner", d.Name},
		{"Learner ID", d.LearnerID},
		{"Points", s.Points},
		{"Level", s.Level},
		{"Points to next level", s.PointsToNextLevel},
		{"Current streak", d.CurrentStreak},
		{"Lessons completed", s.LessonsCompleted},
		{"Quizzes completed", s.QuizzesCompleted},
		{"Quizzes taken", s.QuizzesTaken},
		{"Challenges completed", s.ChallengesCompleted},
		{"Projects completed", s.ProjectsCompleted},
		{"Average quiz score", s.AverageQuizScore},
		{"Achievements", s.Achievements},
		{"Total hours", d.Time.TotalHours},
		{"Efficiency", d.Efficiency.Rating},
		{"Trend", d.Trend.Direction},
		{"Estimated completion", d.Completion.Message},
		{"Reviews due", d.Reviews.Due},
		{"Generated at", generated.Format(time.RFC3339)},
	}
	for i, r := range rows {
		w.row(SheetSummary, i+2, r...)
	}
}

func (w *writer) skills(d *engine.Dashboard) {
	w.headerRow(SheetSkills, "Skill area", "Completed", "Total", "Percentage")
	for i, a := range d.Skills {
		w.row(SheetSkills, i+2, a.Name, a.Completed, a.Total, a.Percentage)
	}
}

func (w *writer) quizzes(attempts []progress.QuizAttempt) {
	w.headerRow(SheetQuizzes, "Quiz", "Score", "Max score", "Percentage", "Taken at")
	for i, a := range attempts {
		w.row(SheetQuizzes, i+2, a.QuizID, a.Score, a.MaxScore, a.Percentage, a.Timestamp.Format(time.RFC3339))
	}
}

func (w *writer) achievements(view *engine.AchievementView) {
	w.headerRow(SheetAchievements, "Achievement", "Category", "Reward", "Earned")
	if view == nil {
		return
	}
	n := 2
	for _, a := range view.Earned {
		w.row(SheetAchievements, n, a.Name, string(a.Category), a.Reward, "yes")
		n++
	}
	for _, a := range view.Available {
		w.row(SheetAchievements, n, a.Name, string(a.Category), a.Reward, "no")
		n++
	}
}

func (w *writer) reviews(due []spacedrep.DueConcept) {
	w.headerRow(SheetReviews, "Concept", "Priority", "Last performance", "Stage", "Due since")
	for i, d := range due {
		w.row(SheetReviews, i+2, d.ConceptID, d.Priority, d.LastPerformance, d.Stage, d.NextReviewAt.Format(time.RFC3339))
	}
}
