package adaptive

import (
	"sort"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/progress"
)

// DefaultPathLimit is the path length used when the request leaves it unset.
const DefaultPathLimit = 10

// Scoring weights for path items.
const (
	goalWeight       = 0.7
	difficultyWeight = 0.3
)

// plannedKinds are the catalog kinds a path may contain.
var plannedKinds = []catalog.Kind{catalog.KindLesson, catalog.KindQuiz, catalog.KindChallenge, catalog.KindProject}

// PathRequest parameterizes a learning-path query.
type PathRequest struct {
	Goals []string
	Style string
	Limit int

	// UseProfileGoals plans for the learner's registered goals when Goals
	// is empty. Without it an empty Goals orders by difficulty fit alone.
	UseProfileGoals bool
}

// PathItem is one step of a learning path.
type PathItem struct {
	ID               string             `json:"id"`
	Kind             catalog.Kind       `json:"kind"`
	Title            string             `json:"title"`
	Difficulty       catalog.Difficulty `json:"difficulty"`
	EstimatedMinutes int                `json:"estimated_minutes"`
	Points           int                `json:"points"`
	Score            float64            `json:"score"`
	GoalMatches      int                `json:"goal_matches"`
	Deadlocked       bool               `json:"deadlocked,omitempty"`
}

// Path is the planner output.
type Path struct {
	Items                []PathItem                     `json:"items"`
	Skill                float64                        `json:"skill"`
	TargetDifficulty     catalog.Difficulty             `json:"target_difficulty"`
	MissingPrerequisites []catalog.DanglingPrerequisite `json:"missing_prerequisites,omitempty"`
}

// Planner orders catalog items into a personalized, prerequisite-respecting
// sequence.
type Planner struct {
	catalog catalog.Provider
}

// NewPlanner creates a path planner over cat.
func NewPlanner(cat catalog.Provider) *Planner {
	return &Planner{catalog: cat}
}

type candidate struct {
	act     catalog.Activity
	score   float64
	matches int
}

// Plan builds a learning path for rec. The result is deterministic for a
// given record, catalog and request. Prerequisites that do not exist in
// the catalog are treated as satisfied and listed in MissingPrerequisites.
func (p *Planner) Plan(rec *progress.Record, req PathRequest) Path {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPathLimit
	}
	skill := EstimateSkill(rec.PerformanceHistory, rec.ExperienceLevel)
	out := Path{Skill: skill, TargetDifficulty: TargetDifficulty(skill)}

	goals := make(map[string]bool, len(req.Goals))
	for _, g := range req.Goals {
		goals[g] = true
	}

	completed := make(map[string]bool)
	var open []catalog.Activity
	for _, k := range plannedKinds {
		for _, a := range p.catalog.List(k) {
			if ItemMastery(rec, a) >= MasteryThreshold {
				completed[a.ID] = true
				continue
			}
			open = append(open, a)
		}
	}

	styled := open
	if req.Style != "" {
		styled = nil
		for _, a := range open {
			if a.SuitsStyle(req.Style) {
				styled = append(styled, a)
			}
		}
		if len(styled) == 0 {
			styled = open
		}
	}

	cands := make([]candidate, 0, len(styled))
	for _, a := range styled {
		matches := 0
		for _, g := range a.Goals {
			if goals[g] {
				matches++
			}
		}
		relevance := float64(matches) / float64(max(1, len(goals)))
		cands = append(cands, candidate{
			act:     a,
			score:   goalWeight*relevance + difficultyWeight*Appropriateness(a.Difficulty, skill),
			matches: matches,
		})
	}
	sort.Slice(cands, func(i, j int) bool { return better(cands[i], cands[j]) })

	missing := make(map[catalog.DanglingPrerequisite]bool)
	sequenced := make(map[string]bool)
	ready := func(a catalog.Activity) bool {
		for _, pre := range a.Prerequisites {
			if completed[pre] || sequenced[pre] {
				continue
			}
			if _, ok := p.catalog.Get(pre); !ok {
				dp := catalog.DanglingPrerequisite{ActivityID: a.ID, PrerequisiteID: pre}
				if !missing[dp] {
					missing[dp] = true
					out.MissingPrerequisites = append(out.MissingPrerequisites, dp)
				}
				continue
			}
			return false
		}
		return true
	}

	// Greedy: take the best-ranked candidate whose prerequisites are met,
	// then rescan, since the pick may unlock a better-ranked item.
	remaining := cands
	for len(out.Items) < limit && len(remaining) > 0 {
		picked := -1
		for i, c := range remaining {
			if ready(c.act) {
				picked = i
				break
			}
		}
		if picked < 0 {
			break
		}
		c := remaining[picked]
		sequenced[c.act.ID] = true
		out.Items = append(out.Items, pathItem(c, false))
		remaining = append(remaining[:picked:picked], remaining[picked+1:]...)
	}

	// Deadlocked items (prerequisites that can never be met in this plan)
	// trail the sequence in score order.
	for _, c := range remaining {
		if len(out.Items) >= limit {
			break
		}
		out.Items = append(out.Items, pathItem(c, true))
	}
	return out
}

func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.matches != b.matches {
		return a.matches > b.matches
	}
	if da, db := a.act.Difficulty.Ordinal(), b.act.Difficulty.Ordinal(); da != db {
		return da < db
	}
	return a.act.ID < b.act.ID
}

func pathItem(c candidate, deadlocked bool) PathItem {
	return PathItem{
		ID:               c.act.ID,
		Kind:             c.act.Kind,
		Title:            c.act.Title,
		Difficulty:       c.act.Difficulty,
		EstimatedMinutes: c.act.EstimatedMinutes,
		Points:           c.act.Points,
		Score:            round3(c.score),
		GoalMatches:      c.matches,
		Deadlocked:       deadlocked,
	}
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
