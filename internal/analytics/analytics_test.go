package analytics

import (
	"testing"
	"time"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
)

var created = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	lesson := func(id, area string) catalog.Activity {
		return catalog.Activity{ID: id, Kind: catalog.KindLesson, Difficulty: catalog.Beginner, Points: 10,
			EstimatedMinutes: 10, Objectives: []string{id}, SkillArea: area}
	}
	c, err := catalog.New(catalog.Document{
		Version:    "v1.0.0",
		Goals:      []string{"fundamentals"},
		SkillAreas: []catalog.SkillArea{{ID: "basics", Name: "Basics"}, {ID: "functions", Name: "Functions"}, {ID: "oop", Name: "OOP"}},
		Activities: []catalog.Activity{
			lesson("l1", "basics"), lesson("l2", "basics"),
			lesson("l3", "functions"), lesson("l4", "functions"),
			{ID: "q1", Kind: catalog.KindQuiz, Difficulty: catalog.Easy, EstimatedMinutes: 5},
			{ID: "q2", Kind: catalog.KindQuiz, Difficulty: catalog.Easy, EstimatedMinutes: 5},
			{ID: "c1", Kind: catalog.KindChallenge, Difficulty: catalog.Medium, EstimatedMinutes: 30},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(c)
}

func newRecord() *progress.Record {
	return progress.NewRecord("l", "Ada", progress.SomeExperience, nil, created)
}

func withQuizzes(rec *progress.Record, pcts ...float64) {
	var sum float64
	for i, p := range pcts {
		rec.QuizAttempts = append(rec.QuizAttempts, progress.QuizAttempt{QuizID: "q1", Percentage: p, Timestamp: created.Add(time.Duration(i) * time.Hour)})
		sum += p
	}
	rec.QuizzesTaken = len(pcts)
	if len(pcts) > 0 {
		rec.AverageQuizScore = sum / float64(len(pcts))
	}
}

func TestUserStats(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	rec.LessonsCompleted = 3
	rec.CompletedLessonIDs = progress.IDSet{"l1", "l2", "l3"}
	rec.ChallengesCompleted = 1
	rec.CompletedChallengeIDs = progress.IDSet{"c1"}
	rec.QuizzesCompleted = 2
	rec.CompletedQuizIDs = progress.IDSet{"q1", "q2"}
	withQuizzes(rec, 80, 90)
	rec.Points = 110
	rec.Level = 2
	rec.Streak = 3
	rec.LastStreakDate = "2025-01-05"

	now := created.Add(4*24*time.Hour + time.Hour)
	st := e.UserStats(rec, now)

	if st.PointsToNextLevel != 90 {
		t.Errorf("PointsToNextLevel = %d, want 90", st.PointsToNextLevel)
	}
	if st.DaysActive != 4 {
		t.Errorf("DaysActive = %d, want 4", st.DaysActive)
	}
	if st.LearningVelocity != 1.5 {
		t.Errorf("LearningVelocity = %v, want 1.5", st.LearningVelocity)
	}
	// 2*3 + 5*1 + 3*2 + 85/10 = 25.5
	if st.SkillScore != 25.5 {
		t.Errorf("SkillScore = %v, want 25.5", st.SkillScore)
	}
	if st.CompletionPercentages.Lessons != 6 || st.CompletionPercentages.Quizzes != 10 || st.CompletionPercentages.Challenges != 10 {
		t.Errorf("CompletionPercentages = %+v", st.CompletionPercentages)
	}
	if st.CompletionRate[catalog.KindLesson] != 75 || st.CompletionRate[catalog.KindQuiz] != 100 {
		t.Errorf("CompletionRate = %v", st.CompletionRate)
	}
	if st.Streak != 3 {
		t.Errorf("Streak = %d, want 3", st.Streak)
	}
}

func TestUserStats_CapsAndFloors(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	rec.LessonsCompleted = 80
	st := e.UserStats(rec, created)
	if st.CompletionPercentages.Lessons != 100 {
		t.Errorf("lesson percentage = %v, want capped at 100", st.CompletionPercentages.Lessons)
	}
	if st.DaysActive != 1 {
		t.Errorf("DaysActive on day zero = %d, want 1", st.DaysActive)
	}
	if st.LearningVelocity != 80 {
		t.Errorf("LearningVelocity = %v, want 80", st.LearningVelocity)
	}
}

func TestUserStats_StaleStreakReadsZero(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	rec.Streak = 5
	rec.LastStreakDate = "2025-01-01"
	if st := e.UserStats(rec, created.Add(72*time.Hour)); st.Streak != 0 {
		t.Errorf("Streak = %d, want 0 after a two-day gap", st.Streak)
	}
}

func TestTimeBreakdown(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	rec.LessonsCompleted = 2
	rec.QuizzesCompleted = 3
	rec.ChallengesCompleted = 1
	rec.PlaygroundUses = 4

	tb := e.TimeBreakdown(rec)
	if tb.Lessons != 30 || tb.Quizzes != 30 || tb.Challenges != 30 || tb.Playground != 20 {
		t.Errorf("breakdown = %+v", tb)
	}
	if tb.TotalMinutes != 110 || tb.TotalHours != 1.8 {
		t.Errorf("total = %d min / %v h, want 110 / 1.8", tb.TotalMinutes, tb.TotalHours)
	}
}

func TestLearningEfficiency(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		name    string
		lessons int
		avg     float64
		days    int
		overall float64
		rating  string
	}{
		{"excellent", 10, 90, 5, 96, RatingExcellent},
		{"average", 2, 50, 4, 50, RatingAverage},
		{"capped rate", 40, 60, 1, 84, RatingExcellent},
		{"idle", 0, 0, 10, 0, RatingNeedsImprovement},
		{"good band", 3, 75, 4, 75, RatingGood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord()
			rec.LessonsCompleted = tt.lessons
			rec.AverageQuizScore = tt.avg
			eff := e.LearningEfficiency(rec, created.Add(time.Duration(tt.days)*24*time.Hour))
			if eff.Overall != tt.overall || eff.Rating != tt.rating {
				t.Errorf("efficiency = %+v, want overall %v rating %s", eff, tt.overall, tt.rating)
			}
			if eff.CompletionRate > 1 {
				t.Errorf("CompletionRate = %v exceeds 1", eff.CompletionRate)
			}
		})
	}
}

func TestSkillProgression(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	rec.CompletedLessonIDs = progress.IDSet{"l1", "l2", "l3"}
	rec.LessonsCompleted = 3

	got := e.SkillProgression(rec)
	if len(got) != 3 {
		t.Fatalf("got %d areas, want 3", len(got))
	}
	want := []struct {
		area             string
		completed, total int
		pct              float64
	}{
		{"basics", 2, 2, 100},
		{"functions", 1, 2, 50},
		{"oop", 0, 0, 0},
	}
	for i, w := range want {
		g := got[i]
		if g.Area != w.area || g.Completed != w.completed || g.Total != w.total || g.Percentage != w.pct {
			t.Errorf("area %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestProgressTrend(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		name string
		pcts []float64
		want string
	}{
		{"none", nil, TrendStable},
		{"single", []float64{50}, TrendStable},
		{"improving", []float64{30, 50, 70, 90, 100}, TrendImproving},
		{"declining", []float64{100, 85, 70, 55, 40}, TrendDeclining},
		{"flat", []float64{70, 70, 70, 70}, TrendStable},
		{"noisy", []float64{70, 75, 70, 78, 72}, TrendStable},
		{"ten points per attempt", []float64{40, 50, 60, 70, 80}, TrendStable},
		{"two points", []float64{50, 90}, TrendImproving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord()
			withQuizzes(rec, tt.pcts...)
			if got := e.ProgressTrend(rec); got.Direction != tt.want {
				t.Errorf("ProgressTrend() = %+v, want %s", got, tt.want)
			}
		})
	}
}

func TestProgressTrend_UsesLastTenAttempts(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	// Ten rising scores preceded by a long, falling history that must be ignored.
	withQuizzes(rec, 100, 95, 90, 85, 80, 10, 25, 40, 55, 70, 85, 100, 100, 100, 100)
	tr := e.ProgressTrend(rec)
	if tr.Samples != 10 || tr.Direction != TrendImproving {
		t.Errorf("trend = %+v, want 10 samples improving", tr)
	}
	if len(tr.MovingAverage) != 8 {
		t.Errorf("moving average has %d points, want 8", len(tr.MovingAverage))
	}
}

func TestRecommendations(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	withQuizzes(rec, 40)
	rec.SpacedRepetition["loops"] = spacedrep.ConceptState{
		Attempts: 1, LastReviewAt: created, NextReviewAt: created.Add(time.Hour), EaseFactor: 2.5,
	}

	recs := e.Recommendations(rec, created.Add(2*time.Hour))
	if len(recs) != MaxRecommendations {
		t.Fatalf("got %d recommendations, want %d", len(recs), MaxRecommendations)
	}
	wantTypes := []string{"focus_fundamentals", "review_material", "due_reviews", "first_challenge", "improve_area"}
	for i, w := range wantTypes {
		if recs[i].Type != w {
			t.Errorf("recs[%d].Type = %q, want %q", i, recs[i].Type, w)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Priority.rank() < recs[i-1].Priority.rank() {
			t.Errorf("recommendations not ordered by priority: %v before %v", recs[i-1].Priority, recs[i].Priority)
		}
	}
}

func TestRecommendations_NoQuizzesNoReviewRule(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	for _, r := range e.Recommendations(rec, created) {
		if r.Type == "review_material" {
			t.Error("review_material should need at least one quiz attempt")
		}
	}
}

func TestEstimatedCompletion(t *testing.T) {
	e := testEngine(t)
	rec := newRecord()
	est := e.EstimatedCompletion(rec, created.Add(48*time.Hour))
	if est.Estimable || est.Message != "unable to estimate" {
		t.Errorf("idle learner estimate = %+v", est)
	}

	rec.LessonsCompleted = 1
	rec.CompletedLessonIDs = progress.IDSet{"l1"}
	est = e.EstimatedCompletion(rec, created.Add(4*24*time.Hour))
	// 6 remaining items at 0.25/day.
	if !est.Estimable || est.RemainingItems != 6 || est.Days != 24 {
		t.Errorf("estimate = %+v, want 6 items over 24 days", est)
	}
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("movingAverage = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("movingAverage[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
