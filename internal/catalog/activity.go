package catalog

// Kind identifies the type of a learnable activity.
type Kind string

const (
	KindLesson     Kind = "lesson"
	KindQuiz       Kind = "quiz"
	KindChallenge  Kind = "challenge"
	KindProject    Kind = "project"
	KindMicroChunk Kind = "micro_chunk"
)

// AllKinds returns all activity kinds in display order.
func AllKinds() []Kind {
	return []Kind{KindLesson, KindQuiz, KindChallenge, KindProject, KindMicroChunk}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindLesson, KindQuiz, KindChallenge, KindProject, KindMicroChunk:
		return true
	}
	return false
}

// Difficulty is a named difficulty. Two scales coexist in catalogs: the
// five-step very_easy..very_hard scale and the beginner..expert scale.
type Difficulty string

const (
	VeryEasy Difficulty = "very_easy"
	Easy     Difficulty = "easy"
	Medium   Difficulty = "medium"
	Hard     Difficulty = "hard"
	VeryHard Difficulty = "very_hard"

	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
	Expert       Difficulty = "expert"
)

// Ordinal maps a difficulty onto the internal 1..5 scale.
// Returns 0 for unknown values.
func (d Difficulty) Ordinal() int {
	switch d {
	case VeryEasy:
		return 1
	case Easy, Beginner:
		return 2
	case Medium, Intermediate:
		return 3
	case Hard, Advanced:
		return 4
	case VeryHard, Expert:
		return 5
	}
	return 0
}

// Valid reports whether d belongs to either scale.
func (d Difficulty) Valid() bool { return d.Ordinal() > 0 }

// Normalize returns the five-step equivalent of d.
func (d Difficulty) Normalize() Difficulty {
	return FromOrdinal(d.Ordinal())
}

// FromOrdinal returns the five-step difficulty for ordinal n, clamped to 1..5.
func FromOrdinal(n int) Difficulty {
	switch {
	case n <= 1:
		return VeryEasy
	case n == 2:
		return Easy
	case n == 3:
		return Medium
	case n == 4:
		return Hard
	default:
		return VeryHard
	}
}

// Activity describes one catalog item.
type Activity struct {
	ID               string         `yaml:"id" json:"id"`
	Kind             Kind           `yaml:"kind" json:"kind"`
	Title            string         `yaml:"title" json:"title"`
	Difficulty       Difficulty     `yaml:"difficulty" json:"difficulty"`
	Points           int            `yaml:"points" json:"points"`
	Prerequisites    []string       `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	Concepts         []string       `yaml:"concepts,omitempty" json:"concepts,omitempty"`
	Goals            []string       `yaml:"goals,omitempty" json:"goals,omitempty"`
	Styles           []string       `yaml:"styles,omitempty" json:"styles,omitempty"`
	SkillArea        string         `yaml:"skill_area,omitempty" json:"skill_area,omitempty"`
	EstimatedMinutes int            `yaml:"estimated_minutes" json:"estimated_minutes"`
	Objectives       []string       `yaml:"objectives,omitempty" json:"objectives,omitempty"`
	Content          *LessonContent `yaml:"content,omitempty" json:"-"`
}

// ChunkCount returns how many micro-chunks a lesson is split into:
// an introduction, four chunks per objective and a summary.
func (a Activity) ChunkCount() int {
	if a.Kind != KindLesson {
		return 0
	}
	return 2 + 4*len(a.Objectives)
}

// SuitsStyle reports whether the activity fits the given learning style.
// Activities without declared styles fit every style.
func (a Activity) SuitsStyle(style string) bool {
	if len(a.Styles) == 0 || style == "" {
		return true
	}
	for _, s := range a.Styles {
		if s == style {
			return true
		}
	}
	return false
}

// LessonContent is the teaching material attached to a lesson.
type LessonContent struct {
	Intro    string    `yaml:"intro"`
	Summary  string    `yaml:"summary"`
	Sections []Section `yaml:"sections"`
}

// Section is the material for one lesson objective.
type Section struct {
	Concept     string    `yaml:"concept"`
	Explanation string    `yaml:"explanation"`
	KeyPoints   []string  `yaml:"key_points,omitempty"`
	Example     string    `yaml:"example,omitempty"`
	Exercise    *Exercise `yaml:"exercise,omitempty"`
	Check       *Check    `yaml:"check,omitempty"`
}

// Exercise is a hands-on coding prompt.
type Exercise struct {
	Prompt   string `yaml:"prompt"`
	Starter  string `yaml:"starter,omitempty"`
	Solution string `yaml:"solution,omitempty"`
}

// Check is a single multiple-choice knowledge check.
type Check struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Answer   int      `yaml:"answer"`
}

// Section returns the section for the given objective, if present.
func (c *LessonContent) Section(concept string) (Section, bool) {
	if c == nil {
		return Section{}, false
	}
	for _, s := range c.Sections {
		if s.Concept == concept {
			return s, true
		}
	}
	return Section{}, false
}

// Learning styles accepted by the path planner.
const (
	StyleVisual      = "visual"
	StyleAuditory    = "auditory"
	StyleKinesthetic = "kinesthetic"
	StyleReading     = "reading"
)

// ValidStyle reports whether s is a known learning style.
func ValidStyle(s string) bool {
	switch s {
	case StyleVisual, StyleAuditory, StyleKinesthetic, StyleReading:
		return true
	}
	return false
}
