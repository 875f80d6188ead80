package spacedrep

import "time"

// Summary aggregates review state for dashboards and the CLI.
type Summary struct {
	Tracked int         `json:"tracked"`
	Due     int         `json:"due"`
	Overdue int         `json:"overdue"`
	ByStage map[int]int `json:"by_stage"`
	NextDue *time.Time  `json:"next_due,omitempty"`
	AvgEase float64     `json:"average_ease"`
}

// Summarize computes a Summary over states as of now.
func Summarize(states map[string]ConceptState, now time.Time) Summary {
	sum := Summary{ByStage: make(map[int]int)}
	var easeTotal float64
	for _, st := range states {
		if st.Attempts == 0 {
			continue
		}
		sum.Tracked++
		sum.ByStage[st.Stage]++
		easeTotal += st.EaseFactor
		switch st.Status(now) {
		case ReviewDue:
			sum.Due++
		case ReviewOverdue:
			sum.Due++
			sum.Overdue++
		case ReviewNotDue:
			next := st.NextReviewAt
			if sum.NextDue == nil || next.Before(*sum.NextDue) {
				sum.NextDue = &next
			}
		}
	}
	if sum.Tracked > 0 {
		sum.AvgEase = easeTotal / float64(sum.Tracked)
	}
	return sum
}
