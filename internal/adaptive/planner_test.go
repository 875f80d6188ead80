package adaptive

import (
	"reflect"
	"testing"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/progress"
)

// fakeCatalog is an in-memory catalog.Provider.
type fakeCatalog struct {
	items []catalog.Activity
}

func (f *fakeCatalog) Get(id string) (catalog.Activity, bool) {
	for _, a := range f.items {
		if a.ID == id {
			return a, true
		}
	}
	return catalog.Activity{}, false
}

func (f *fakeCatalog) kind(id string, k catalog.Kind) (catalog.Activity, bool) {
	a, ok := f.Get(id)
	if !ok || a.Kind != k {
		return catalog.Activity{}, false
	}
	return a, true
}

func (f *fakeCatalog) Lesson(id string) (catalog.Activity, bool) { return f.kind(id, catalog.KindLesson) }
func (f *fakeCatalog) Quiz(id string) (catalog.Activity, bool)   { return f.kind(id, catalog.KindQuiz) }
func (f *fakeCatalog) Challenge(id string) (catalog.Activity, bool) {
	return f.kind(id, catalog.KindChallenge)
}

func (f *fakeCatalog) List(k catalog.Kind) []catalog.Activity {
	var out []catalog.Activity
	for _, a := range f.items {
		if a.Kind == k {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeCatalog) Goals() []string { return []string{"fundamentals", "web_development"} }

func (f *fakeCatalog) SkillAreas() []catalog.SkillArea { return nil }

func lesson(id string, d catalog.Difficulty, goals []string, prereqs ...string) catalog.Activity {
	return catalog.Activity{
		ID: id, Kind: catalog.KindLesson, Title: id, Difficulty: d, Points: 10,
		Goals: goals, Prerequisites: prereqs, EstimatedMinutes: 10, Objectives: []string{id},
	}
}

func ids(p Path) []string {
	out := make([]string, len(p.Items))
	for i, it := range p.Items {
		out[i] = it.ID
	}
	return out
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

var fundamentals = []string{"fundamentals"}

func beginner() *progress.Record {
	return progress.NewRecord("u1", "Ada", progress.CompleteBeginner, fundamentals, now)
}

func TestPlan_PrerequisiteFirst(t *testing.T) {
	// lesson_b ranks higher on difficulty fit but requires lesson_a.
	cat := &fakeCatalog{items: []catalog.Activity{
		lesson("lesson_a", catalog.Medium, fundamentals),
		lesson("lesson_b", catalog.VeryEasy, fundamentals, "lesson_a"),
	}}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals})

	got := ids(p)
	a, b := indexOf(got, "lesson_a"), indexOf(got, "lesson_b")
	if a < 0 || b < 0 || a >= b {
		t.Fatalf("path = %v, want lesson_a strictly before lesson_b", got)
	}
	for _, it := range p.Items {
		if it.Deadlocked {
			t.Errorf("%s marked deadlocked", it.ID)
		}
	}
}

func TestPlan_SkipsMastered(t *testing.T) {
	cat := &fakeCatalog{items: []catalog.Activity{
		lesson("lesson_a", catalog.Easy, fundamentals),
		lesson("lesson_b", catalog.Easy, fundamentals, "lesson_a"),
	}}
	rec := beginner()
	rec.CompletedLessonIDs.Add("lesson_a")
	rec.LessonsCompleted = 1

	p := NewPlanner(cat).Plan(rec, PathRequest{Goals: fundamentals})
	if got := ids(p); !reflect.DeepEqual(got, []string{"lesson_b"}) {
		t.Errorf("path = %v, want [lesson_b]", got)
	}
}

func TestPlan_GoalRelevanceDominates(t *testing.T) {
	web := []string{"web_development"}
	cat := &fakeCatalog{items: []catalog.Activity{
		lesson("lesson_web", catalog.VeryEasy, web),
		lesson("lesson_fund", catalog.VeryHard, fundamentals),
	}}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals})
	if got := ids(p); got[0] != "lesson_fund" {
		t.Errorf("path = %v, want goal match first", got)
	}
	if p.Items[0].GoalMatches != 1 || p.Items[1].GoalMatches != 0 {
		t.Errorf("goal matches = %d,%d, want 1,0", p.Items[0].GoalMatches, p.Items[1].GoalMatches)
	}
}

func TestPlan_EmptyGoalsOrdersByDifficultyFit(t *testing.T) {
	cat := &fakeCatalog{items: []catalog.Activity{
		lesson("lesson_hard", catalog.VeryHard, fundamentals),
		lesson("lesson_med", catalog.Medium, nil),
		lesson("lesson_easy", catalog.VeryEasy, nil),
	}}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{})
	want := []string{"lesson_easy", "lesson_med", "lesson_hard"}
	if got := ids(p); !reflect.DeepEqual(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestPlan_TieBreaks(t *testing.T) {
	cat := &fakeCatalog{items: []catalog.Activity{
		lesson("lesson_z", catalog.Easy, fundamentals),
		lesson("lesson_y", catalog.Easy, fundamentals),
		lesson("lesson_x", catalog.Easy, fundamentals),
	}}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals})
	want := []string{"lesson_x", "lesson_y", "lesson_z"}
	if got := ids(p); !reflect.DeepEqual(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	planner := NewPlanner(cat)
	rec := beginner()
	req := PathRequest{Goals: []string{"fundamentals", "problem_solving"}, Limit: 8}

	first := planner.Plan(rec, req)
	for range 5 {
		if again := planner.Plan(rec, req); !reflect.DeepEqual(first, again) {
			t.Fatalf("plans differ:\n%v\n%v", ids(first), ids(again))
		}
	}
	if len(first.Items) != 8 {
		t.Errorf("len = %d, want limit 8", len(first.Items))
	}
}

func TestPlan_RespectsCatalogPrerequisites(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals, Limit: 100})
	seen := map[string]bool{}
	for _, it := range p.Items {
		a, _ := cat.Get(it.ID)
		for _, pre := range a.Prerequisites {
			if !it.Deadlocked && !seen[pre] {
				t.Errorf("%s scheduled before its prerequisite %s", it.ID, pre)
			}
		}
		seen[it.ID] = true
	}
}

func TestPlan_StyleFilterFallsBack(t *testing.T) {
	visual := lesson("lesson_v", catalog.Easy, fundamentals)
	visual.Styles = []string{catalog.StyleVisual}
	reading := lesson("lesson_r", catalog.Easy, fundamentals)
	reading.Styles = []string{catalog.StyleReading}
	cat := &fakeCatalog{items: []catalog.Activity{visual, reading}}
	planner := NewPlanner(cat)

	p := planner.Plan(beginner(), PathRequest{Goals: fundamentals, Style: catalog.StyleVisual})
	if got := ids(p); !reflect.DeepEqual(got, []string{"lesson_v"}) {
		t.Errorf("visual path = %v, want [lesson_v]", got)
	}

	p = planner.Plan(beginner(), PathRequest{Goals: fundamentals, Style: catalog.StyleAuditory})
	if len(p.Items) != 2 {
		t.Errorf("auditory path = %v, want fallback to both lessons", ids(p))
	}
}

func TestPlan_DanglingPrerequisiteSatisfied(t *testing.T) {
	cat := &fakeCatalog{items: []catalog.Activity{
		lesson("lesson_a", catalog.Easy, fundamentals, "lesson_gone"),
		lesson("lesson_b", catalog.Easy, fundamentals, "lesson_gone"),
	}}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals})
	if len(p.Items) != 2 || p.Items[0].Deadlocked || p.Items[1].Deadlocked {
		t.Fatalf("items = %+v, want both scheduled normally", p.Items)
	}
	want := []catalog.DanglingPrerequisite{
		{ActivityID: "lesson_a", PrerequisiteID: "lesson_gone"},
		{ActivityID: "lesson_b", PrerequisiteID: "lesson_gone"},
	}
	if !reflect.DeepEqual(p.MissingPrerequisites, want) {
		t.Errorf("missing = %+v, want %+v", p.MissingPrerequisites, want)
	}
}

func TestPlan_DeadlockedAppended(t *testing.T) {
	// lesson_b needs lesson_v, which the style filter removes.
	v := lesson("lesson_v", catalog.Easy, fundamentals)
	v.Styles = []string{catalog.StyleVisual}
	b := lesson("lesson_b", catalog.VeryEasy, fundamentals, "lesson_v")
	b.Styles = []string{catalog.StyleReading}
	c := lesson("lesson_c", catalog.Medium, fundamentals)
	c.Styles = []string{catalog.StyleReading}
	cat := &fakeCatalog{items: []catalog.Activity{v, b, c}}

	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals, Style: catalog.StyleReading})
	if got := ids(p); !reflect.DeepEqual(got, []string{"lesson_c", "lesson_b"}) {
		t.Fatalf("path = %v, want [lesson_c lesson_b]", got)
	}
	if p.Items[0].Deadlocked || !p.Items[1].Deadlocked {
		t.Errorf("deadlocked flags = %v,%v, want false,true", p.Items[0].Deadlocked, p.Items[1].Deadlocked)
	}
}

func TestPlan_ExcludesMicroChunks(t *testing.T) {
	chunk := catalog.Activity{ID: "chunk_1", Kind: catalog.KindMicroChunk, Difficulty: catalog.Easy, EstimatedMinutes: 3}
	cat := &fakeCatalog{items: []catalog.Activity{chunk, lesson("lesson_a", catalog.Easy, fundamentals)}}
	p := NewPlanner(cat).Plan(beginner(), PathRequest{Goals: fundamentals})
	if got := ids(p); !reflect.DeepEqual(got, []string{"lesson_a"}) {
		t.Errorf("path = %v, want [lesson_a]", got)
	}
}

func TestPlan_ReportsSkill(t *testing.T) {
	cat := &fakeCatalog{items: []catalog.Activity{lesson("lesson_a", catalog.Easy, fundamentals)}}
	rec := progress.NewRecord("u2", "Grace", progress.Advanced, fundamentals, now)
	p := NewPlanner(cat).Plan(rec, PathRequest{})
	if p.Skill != 0.7 || p.TargetDifficulty != catalog.Hard {
		t.Errorf("skill=%v target=%s, want 0.7 and hard", p.Skill, p.TargetDifficulty)
	}
}
