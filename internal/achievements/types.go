package achievements

// Category groups achievements for display.
type Category string

const (
	CategoryLessons    Category = "lessons"
	CategoryChallenges Category = "challenges"
	CategoryQuizzes    Category = "quizzes"
	CategoryPoints     Category = "points"
	CategoryStreak     Category = "streak"
)

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{CategoryLessons, CategoryChallenges, CategoryQuizzes, CategoryPoints, CategoryStreak}
}

// DisplayName returns a human-readable label for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryLessons:
		return "Lessons"
	case CategoryChallenges:
		return "Challenges"
	case CategoryQuizzes:
		return "Quizzes"
	case CategoryPoints:
		return "Points"
	case CategoryStreak:
		return "Streak"
	default:
		return string(c)
	}
}

// Icon returns the display icon for the category.
func (c Category) Icon() string {
	switch c {
	case CategoryLessons:
		return "📚"
	case CategoryChallenges:
		return "🧩"
	case CategoryQuizzes:
		return "📝"
	case CategoryPoints:
		return "💎"
	case CategoryStreak:
		return "🔥"
	default:
		return "✦"
	}
}
