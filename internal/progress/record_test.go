package progress

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRecord_JSONRoundTrip(t *testing.T) {
	l, clk := newTestLedger(t)
	rec := newTestRecord()
	mustApply(t, l, rec, LessonCompleted{LessonID: "lesson_1", Points: 10})
	mustApply(t, l, rec, QuizCompleted{QuizID: "quiz_3", Correct: 7, Total: 9, RewardPoints: 25})
	clk.Advance(26 * time.Hour)
	mustApply(t, l, rec, MicroChunkOutcome{ConceptID: "variables", ActivityID: "lesson_1", Correct: true, Quality: 4, ElapsedSeconds: 90})
	mustApply(t, l, rec, ChunkShown{LessonID: "lesson_x", ChunkIndex: 2})
	mustApply(t, l, rec, DailyChallengeCompleted{RewardPoints: 5})
	l.CreditAchievement(rec, "first_steps", 10)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rec, &got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, *rec)
	}

	again, err := json.Marshal(&got)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Error("re-encoding a decoded record should be byte-identical")
	}
}

func TestRecord_TopLevelKeys(t *testing.T) {
	data, err := json.Marshal(newTestRecord())
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		"id", "name", "experience_level", "learning_goals", "created_at", "last_activity",
		"lessons_completed", "challenges_completed", "quizzes_completed", "quizzes_taken",
		"playground_uses", "projects_completed", "completed_lesson_ids", "completed_challenge_ids",
		"completed_quiz_ids", "completed_project_ids", "points", "level", "streak",
		"last_streak_date", "achievements", "quiz_attempts", "average_quiz_score",
		"attempts", "spaced_repetition",
	} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	if string(fields["completed_lesson_ids"]) != "[]" {
		t.Errorf("empty set encodes as %s, want []", fields["completed_lesson_ids"])
	}
}

func TestIDSet(t *testing.T) {
	var s IDSet
	if !s.Add("b") || !s.Add("a") || s.Add("b") {
		t.Fatal("Add should report insertion of new members only")
	}
	if s.Len() != 2 || !s.Has("a") || s.Has("c") {
		t.Errorf("set = %v", s)
	}

	var decoded IDSet
	if err := json.Unmarshal([]byte(`["x","y","x"]`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Len() != 2 {
		t.Errorf("duplicates should be dropped on read, got %v", decoded)
	}
	if !decoded.Equal(IDSet{"y", "x"}) {
		t.Error("Equal should ignore order")
	}
}

func TestRecord_CloneIsDeep(t *testing.T) {
	l, _ := newTestLedger(t)
	rec := newTestRecord()
	mustApply(t, l, rec, MicroChunkOutcome{ConceptID: "variables", Correct: true, Quality: 5})

	c := rec.Clone()
	c.CompletedLessonIDs.Add("lesson_1")
	c.Attempts["x"] = 1
	st := c.SpacedRepetition["variables"]
	st.Recent[0] = false
	c.SpacedRepetition["variables"] = st

	if rec.CompletedLessonIDs.Has("lesson_1") || rec.Attempts["x"] != 0 {
		t.Error("clone shares sets or maps with the original")
	}
	if !rec.SpacedRepetition["variables"].Recent[0] {
		t.Error("clone shares concept history with the original")
	}
}

func TestCheck_DetectsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"level mismatch", func(r *Record) { r.Points = 250 }},
		{"counter mismatch", func(r *Record) { r.LessonsCompleted = 3 }},
		{"negative points", func(r *Record) { r.Points = -5; r.Level = 1 }},
		{"quizzes taken", func(r *Record) { r.QuizzesTaken = 2 }},
		{"average", func(r *Record) { r.AverageQuizScore = 50 }},
		{"streak", func(r *Record) { r.LastStreakDate = "2025-03-10"; r.Streak = 0 }},
		{"attempts", func(r *Record) { r.Attempts["quiz_3"] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestRecord()
			tt.mutate(rec)
			err := Check(rec)
			if !errors.Is(err, ErrInvariantViolation) {
				t.Errorf("Check() = %v, want ErrInvariantViolation", err)
			}
		})
	}

	if err := Check(newTestRecord()); err != nil {
		t.Errorf("fresh record should pass: %v", err)
	}
}

func TestCheckTransition(t *testing.T) {
	prev := newTestRecord()
	prev.Points = 50
	prev.Achievements = IDSet{"first_steps"}

	next := prev.Clone()
	next.Points = 40
	if err := CheckTransition(prev, next); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("points decrease: err = %v", err)
	}

	next = prev.Clone()
	next.Achievements = nil
	if err := CheckTransition(prev, next); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("achievement removal: err = %v", err)
	}
}

func TestLevelCurve(t *testing.T) {
	tests := []struct {
		points, level, toNext int
	}{
		{0, 1, 100},
		{10, 1, 90},
		{99, 1, 1},
		{100, 2, 100},
		{110, 2, 90},
		{999, 10, 1},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.points); got != tt.level {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.points, got, tt.level)
		}
		if got := PointsToNextLevel(tt.points); got != tt.toNext {
			t.Errorf("PointsToNextLevel(%d) = %d, want %d", tt.points, got, tt.toNext)
		}
	}
	if got := LevelProgress(150); got != 0.5 {
		t.Errorf("LevelProgress(150) = %v, want 0.5", got)
	}
}

func TestCurrentStreak(t *testing.T) {
	rec := &Record{Streak: 4, LastStreakDate: "2025-03-10"}
	tests := []struct {
		today string
		want  int
	}{
		{"2025-03-10", 4},
		{"2025-03-11", 4},
		{"2025-03-12", 0},
	}
	for _, tt := range tests {
		if got := CurrentStreak(rec, clockDate(tt.today)); got != tt.want {
			t.Errorf("CurrentStreak on %s = %d, want %d", tt.today, got, tt.want)
		}
	}
	if got := CurrentStreak(&Record{}, "2025-03-10"); got != 0 {
		t.Errorf("unset streak = %d, want 0", got)
	}
}
