package achievements

import (
	"github.com/abhisek/pylearn/internal/progress"
)

// Achievement is one entry of the closed achievement catalog.
type Achievement struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Reward      int      `json:"reward_points"`

	unlocked func(rec *progress.Record, ctx *Context) bool
}

// Context carries catalog-derived facts the rules need.
type Context struct {
	// BeginnerLessons are the lessons that must all be completed for python_novice.
	BeginnerLessons []string
}

var rules = []Achievement{
	{
		ID: "first_steps", Name: "First Steps", Description: "Complete your first lesson",
		Category: CategoryLessons, Reward: 10,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.LessonsCompleted >= 1 },
	},
	{
		ID: "learning_momentum", Name: "Learning Momentum", Description: "Complete 10 lessons",
		Category: CategoryLessons,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.LessonsCompleted >= 10 },
	},
	{
		ID: "dedicated_learner", Name: "Dedicated Learner", Description: "Complete 25 lessons",
		Category: CategoryLessons,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.LessonsCompleted >= 25 },
	},
	{
		ID: "problem_solver", Name: "Problem Solver", Description: "Solve your first coding challenge",
		Category: CategoryChallenges,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.ChallengesCompleted >= 1 },
	},
	{
		ID: "quiz_master", Name: "Quiz Master", Description: "Complete 5 quizzes",
		Category: CategoryQuizzes,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.QuizzesCompleted >= 5 },
	},
	{
		ID: "point_collector", Name: "Point Collector", Description: "Earn 100 points",
		Category: CategoryPoints,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.Points >= 100 },
	},
	{
		ID: "high_achiever", Name: "High Achiever", Description: "Earn 500 points",
		Category: CategoryPoints,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.Points >= 500 },
	},
	{
		ID: "perfectionist", Name: "Perfectionist", Description: "Average 95% or more across at least 3 quizzes",
		Category: CategoryQuizzes,
		unlocked: func(r *progress.Record, _ *Context) bool {
			return r.AverageQuizScore >= 95 && r.QuizzesCompleted >= 3
		},
	},
	{
		ID: "week_warrior", Name: "Week Warrior", Description: "Keep a 7-day learning streak",
		Category: CategoryStreak, Reward: 50,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.Streak >= 7 },
	},
	{
		ID: "consistency_king", Name: "Consistency King", Description: "Keep a 30-day learning streak",
		Category: CategoryStreak, Reward: 300,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.Streak >= 30 },
	},
	{
		ID: "challenge_master", Name: "Challenge Master", Description: "Solve 10 coding challenges",
		Category: CategoryChallenges, Reward: 100,
		unlocked: func(r *progress.Record, _ *Context) bool { return r.ChallengesCompleted >= 10 },
	},
	{
		ID: "python_novice", Name: "Python Novice", Description: "Complete every beginner lesson",
		Category: CategoryLessons, Reward: 200,
		unlocked: func(r *progress.Record, ctx *Context) bool {
			if ctx == nil || len(ctx.BeginnerLessons) == 0 {
				return false
			}
			for _, id := range ctx.BeginnerLessons {
				if !r.CompletedLessonIDs.Has(id) {
					return false
				}
			}
			return true
		},
	},
}

// All returns the achievement catalog in display order.
func All() []Achievement {
	out := make([]Achievement, len(rules))
	copy(out, rules)
	return out
}

// Get returns the achievement with the given ID.
func Get(id string) (Achievement, bool) {
	for _, a := range rules {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// StreakMilestones are the streak lengths that unlock achievements.
var StreakMilestones = []int{7, 30}

// NextStreakMilestone returns the next streak milestone above current,
// or 0 when every milestone is behind.
func NextStreakMilestone(current int) int {
	for _, m := range StreakMilestones {
		if m > current {
			return m
		}
	}
	return 0
}
