package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testDoc(acts ...Activity) Document {
	return Document{
		Version:    "v1.0.0",
		Goals:      []string{"fundamentals", "web"},
		SkillAreas: []SkillArea{{ID: "basics", Name: "Basics"}},
		Activities: acts,
	}
}

func lesson(id string, prereqs ...string) Activity {
	return Activity{
		ID:               id,
		Kind:             KindLesson,
		Difficulty:       Beginner,
		Points:           10,
		Prerequisites:    prereqs,
		EstimatedMinutes: 10,
		Objectives:       []string{id + "_concept"},
	}
}

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if c.Version() != "v1.0.0" {
		t.Errorf("version = %q, want v1.0.0", c.Version())
	}
	if len(c.List(KindLesson)) == 0 || len(c.List(KindQuiz)) == 0 || len(c.List(KindChallenge)) == 0 {
		t.Error("default catalog should carry lessons, quizzes and challenges")
	}
	if len(c.Dangling()) != 0 {
		t.Errorf("default catalog has dangling prerequisites: %v", c.Dangling())
	}
	if len(c.BeginnerLessons()) == 0 {
		t.Error("default catalog should have beginner lessons")
	}
}

func TestDefault_TopologicalOrderRespectsPrerequisites(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	order := c.TopologicalOrder()
	if len(order) != len(c.All()) {
		t.Fatalf("topological order has %d entries, want %d", len(order), len(c.All()))
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, a := range c.All() {
		for _, p := range a.Prerequisites {
			if pos[p] >= pos[a.ID] {
				t.Errorf("%s appears before its prerequisite %s", a.ID, p)
			}
		}
	}
}

func TestDefault_LessonContentSections(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	l, ok := c.Lesson("lesson_1")
	if !ok {
		t.Fatal("lesson_1 missing")
	}
	s, ok := l.Content.Section("print")
	if !ok {
		t.Fatal("lesson_1 should have a print section")
	}
	if s.Check == nil || len(s.Check.Options) == 0 {
		t.Error("print section should carry a knowledge check")
	}
	if l.ChunkCount() != 2+4*len(l.Objectives) {
		t.Errorf("ChunkCount = %d", l.ChunkCount())
	}
}

func TestKindAccessors(t *testing.T) {
	c, err := New(testDoc(
		lesson("l1"),
		Activity{ID: "q1", Kind: KindQuiz, Difficulty: Easy, EstimatedMinutes: 5},
	))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lesson("l1"); !ok {
		t.Error("Lesson(l1) not found")
	}
	if _, ok := c.Quiz("l1"); ok {
		t.Error("Quiz(l1) should not match a lesson")
	}
	if _, ok := c.Quiz("q1"); !ok {
		t.Error("Quiz(q1) not found")
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}

func TestDependents(t *testing.T) {
	c, err := New(testDoc(lesson("a"), lesson("b", "a"), lesson("c", "a")))
	if err != nil {
		t.Fatal(err)
	}
	deps := c.Dependents("a")
	if len(deps) != 2 {
		t.Errorf("Dependents(a) = %v, want [b c]", deps)
	}
}

func TestValidate_DetectsCycle(t *testing.T) {
	err := Validate(testDoc(lesson("a", "b"), lesson("b", "a")))
	if err == nil {
		t.Fatal("expected error for cycle, got nil")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error should mention cycle, got: %v", err)
	}
}

func TestValidate_DanglingPrerequisiteIsNotAnError(t *testing.T) {
	c, err := New(testDoc(lesson("a"), lesson("b", "ghost")))
	if err != nil {
		t.Fatalf("dangling prerequisite should not fail validation: %v", err)
	}
	d := c.Dangling()
	if len(d) != 1 || d[0].ActivityID != "b" || d[0].PrerequisiteID != "ghost" {
		t.Errorf("Dangling() = %v", d)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"duplicate", testDoc(lesson("a"), lesson("a")), "duplicate"},
		{"bad kind", testDoc(Activity{ID: "x", Kind: "video", Difficulty: Easy, EstimatedMinutes: 1}), "unknown kind"},
		{"bad difficulty", testDoc(Activity{ID: "x", Kind: KindQuiz, Difficulty: "brutal", EstimatedMinutes: 1}), "unknown difficulty"},
		{"zero minutes", testDoc(Activity{ID: "x", Kind: KindQuiz, Difficulty: Easy}), "estimated_minutes"},
		{"unknown goal", testDoc(Activity{ID: "x", Kind: KindQuiz, Difficulty: Easy, EstimatedMinutes: 1, Goals: []string{"space"}}), "unknown goal"},
		{"no objectives", testDoc(Activity{ID: "x", Kind: KindLesson, Difficulty: Easy, EstimatedMinutes: 1}), "no objectives"},
		{"unknown area", testDoc(Activity{ID: "x", Kind: KindQuiz, Difficulty: Easy, EstimatedMinutes: 1, SkillArea: "magic"}), "skill area"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_Version(t *testing.T) {
	for _, v := range []string{"", "1.0.0", "v2.0.0"} {
		doc := testDoc(lesson("a"))
		doc.Version = v
		if err := Validate(doc); err == nil {
			t.Errorf("version %q: expected error", v)
		}
	}
}

func TestDifficultyOrdinal(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want int
	}{
		{VeryEasy, 1}, {Easy, 2}, {Beginner, 2}, {Medium, 3}, {Intermediate, 3},
		{Hard, 4}, {Advanced, 4}, {VeryHard, 5}, {Expert, 5}, {"unknown", 0},
	}
	for _, tt := range tests {
		if got := tt.d.Ordinal(); got != tt.want {
			t.Errorf("%s.Ordinal() = %d, want %d", tt.d, got, tt.want)
		}
	}
	if FromOrdinal(9) != VeryHard || FromOrdinal(-1) != VeryEasy {
		t.Error("FromOrdinal should clamp")
	}
}

func TestSuitsStyle(t *testing.T) {
	neutral := Activity{}
	visual := Activity{Styles: []string{StyleVisual}}
	if !neutral.SuitsStyle(StyleReading) {
		t.Error("neutral activity should suit every style")
	}
	if visual.SuitsStyle(StyleReading) {
		t.Error("visual-only activity should not suit reading")
	}
	if !visual.SuitsStyle("") {
		t.Error("empty style should match")
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "version: v1.0.0\ngoals: [g]\nactivities:\n  - id: a\n    kind: quiz\n    difficulty: easy\n    estimated_minutes: 5\n    colour: red\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	c, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.All()) == 0 {
		t.Error("expected built-in catalog")
	}
}
