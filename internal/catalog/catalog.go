package catalog

import (
	"slices"
	"sort"
)

// Provider is the read-only view of the catalog used by the engine.
type Provider interface {
	Get(id string) (Activity, bool)
	Lesson(id string) (Activity, bool)
	Quiz(id string) (Activity, bool)
	Challenge(id string) (Activity, bool)
	List(kind Kind) []Activity
	Goals() []string
	SkillAreas() []SkillArea
}

// SkillArea is a named cluster of lessons used for progression reporting.
type SkillArea struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Document is the on-disk catalog shape.
type Document struct {
	Version    string      `yaml:"version"`
	Goals      []string    `yaml:"goals"`
	SkillAreas []SkillArea `yaml:"skill_areas"`
	Activities []Activity  `yaml:"activities"`
}

// Catalog holds the activity set with precomputed indices.
type Catalog struct {
	version    string
	goals      []string
	goalSet    map[string]bool
	areas      []SkillArea
	activities []Activity
	byID       map[string]*Activity
	byKind     map[Kind][]Activity
	dependents map[string][]string
	topoOrder  []string
	dangling   []DanglingPrerequisite
}

// DanglingPrerequisite records an activity that names a prerequisite
// which does not exist in the catalog.
type DanglingPrerequisite struct {
	ActivityID     string `json:"activity_id"`
	PrerequisiteID string `json:"prerequisite_id"`
}

// New builds a Catalog from a document. The document is validated first;
// dangling prerequisites are tolerated and exposed via Dangling.
func New(doc Document) (*Catalog, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return build(doc), nil
}

func build(doc Document) *Catalog {
	c := &Catalog{
		version:    doc.Version,
		goals:      slices.Clone(doc.Goals),
		goalSet:    make(map[string]bool, len(doc.Goals)),
		areas:      slices.Clone(doc.SkillAreas),
		activities: slices.Clone(doc.Activities),
		byID:       make(map[string]*Activity, len(doc.Activities)),
		byKind:     make(map[Kind][]Activity),
		dependents: make(map[string][]string),
	}
	for _, g := range doc.Goals {
		c.goalSet[g] = true
	}

	for i := range c.activities {
		c.byID[c.activities[i].ID] = &c.activities[i]
	}
	for i := range c.activities {
		a := c.activities[i]
		c.byKind[a.Kind] = append(c.byKind[a.Kind], a)
		for _, p := range a.Prerequisites {
			if _, ok := c.byID[p]; !ok {
				c.dangling = append(c.dangling, DanglingPrerequisite{ActivityID: a.ID, PrerequisiteID: p})
				continue
			}
			c.dependents[p] = append(c.dependents[p], a.ID)
		}
	}
	for k := range c.byKind {
		sort.Slice(c.byKind[k], func(i, j int) bool { return c.byKind[k][i].ID < c.byKind[k][j].ID })
	}

	// Topological order (Kahn's algorithm), ignoring dangling edges.
	inDegree := make(map[string]int, len(c.activities))
	for _, a := range c.activities {
		n := 0
		for _, p := range a.Prerequisites {
			if _, ok := c.byID[p]; ok {
				n++
			}
		}
		inDegree[a.ID] = n
	}
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		c.topoOrder = append(c.topoOrder, id)

		deps := slices.Clone(c.dependents[id])
		sort.Strings(deps)
		for _, d := range deps {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	return c
}

// Version returns the catalog document version.
func (c *Catalog) Version() string { return c.version }

// Get returns an activity of any kind by ID.
func (c *Catalog) Get(id string) (Activity, bool) {
	a, ok := c.byID[id]
	if !ok {
		return Activity{}, false
	}
	return *a, true
}

func (c *Catalog) getKind(id string, kind Kind) (Activity, bool) {
	a, ok := c.Get(id)
	if !ok || a.Kind != kind {
		return Activity{}, false
	}
	return a, true
}

// Lesson returns a lesson by ID.
func (c *Catalog) Lesson(id string) (Activity, bool) { return c.getKind(id, KindLesson) }

// Quiz returns a quiz by ID.
func (c *Catalog) Quiz(id string) (Activity, bool) { return c.getKind(id, KindQuiz) }

// Challenge returns a challenge by ID.
func (c *Catalog) Challenge(id string) (Activity, bool) { return c.getKind(id, KindChallenge) }

// Project returns a project by ID.
func (c *Catalog) Project(id string) (Activity, bool) { return c.getKind(id, KindProject) }

// List returns all activities of a kind, ordered by ID.
func (c *Catalog) List(kind Kind) []Activity {
	return slices.Clone(c.byKind[kind])
}

// All returns every activity in document order.
func (c *Catalog) All() []Activity {
	return slices.Clone(c.activities)
}

// Goals returns the closed goal-tag set.
func (c *Catalog) Goals() []string { return slices.Clone(c.goals) }

// HasGoal reports whether tag belongs to the goal set.
func (c *Catalog) HasGoal(tag string) bool { return c.goalSet[tag] }

// SkillAreas returns skill areas in reporting order.
func (c *Catalog) SkillAreas() []SkillArea { return slices.Clone(c.areas) }

// Dependents returns the IDs of activities that list id as a prerequisite.
func (c *Catalog) Dependents(id string) []string {
	return slices.Clone(c.dependents[id])
}

// TopologicalOrder returns activity IDs in a prerequisite-respecting order.
func (c *Catalog) TopologicalOrder() []string {
	return slices.Clone(c.topoOrder)
}

// Dangling returns prerequisites that reference unknown activities.
func (c *Catalog) Dangling() []DanglingPrerequisite {
	return slices.Clone(c.dangling)
}

// BeginnerLessons returns the IDs of lessons on the beginner end of the
// difficulty scale (ordinal 2 or below).
func (c *Catalog) BeginnerLessons() []string {
	var ids []string
	for _, a := range c.byKind[KindLesson] {
		if a.Difficulty.Ordinal() <= Beginner.Ordinal() {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
