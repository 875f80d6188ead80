package achievements

import (
	"github.com/abhisek/pylearn/internal/progress"
)

// Evaluator applies the rule catalog to learner records. It holds only
// catalog-derived context and is safe for concurrent use.
type Evaluator struct {
	ctx Context
}

// NewEvaluator creates an evaluator. beginnerLessons lists the lessons
// covered by python_novice.
func NewEvaluator(beginnerLessons []string) *Evaluator {
	return &Evaluator{ctx: Context{BeginnerLessons: append([]string(nil), beginnerLessons...)}}
}

// Evaluate returns achievements whose condition holds for rec and that rec
// has not already earned, in catalog order.
func (e *Evaluator) Evaluate(rec *progress.Record) []Achievement {
	var out []Achievement
	for _, a := range rules {
		if rec.Achievements.Has(a.ID) {
			continue
		}
		if a.unlocked(rec, &e.ctx) {
			out = append(out, a)
		}
	}
	return out
}

// Settle unlocks achievements until none remain. Rewards can push the
// point total over a later threshold, so evaluation repeats after each
// round of credits. credit is called once per unlocked achievement and
// reports whether it was recorded.
func (e *Evaluator) Settle(rec *progress.Record, credit func(id string, reward int) bool) []Achievement {
	var unlocked []Achievement
	for range len(rules) {
		next := e.Evaluate(rec)
		if len(next) == 0 {
			break
		}
		for _, a := range next {
			if credit(a.ID, a.Reward) {
				unlocked = append(unlocked, a)
			}
		}
	}
	return unlocked
}

// Catalog returns every achievement in display order.
func (e *Evaluator) Catalog() []Achievement { return All() }

// Partition splits the catalog into earned and still-available achievements.
func (e *Evaluator) Partition(rec *progress.Record) (earned, available []Achievement) {
	for _, a := range rules {
		if rec.Achievements.Has(a.ID) {
			earned = append(earned, a)
		} else {
			available = append(available, a)
		}
	}
	return earned, available
}
