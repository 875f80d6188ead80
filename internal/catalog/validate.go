package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// SupportedMajor is the catalog document major version this build reads.
const SupportedMajor = "v1"

// Validate performs structural checks on a catalog document.
// Returns a combined error describing all problems found, or nil if valid.
// Prerequisites that point at unknown IDs are not errors here; the planner
// reports them and keeps going.
func Validate(doc Document) error {
	var errs []string

	if !semver.IsValid(doc.Version) {
		errs = append(errs, fmt.Sprintf("invalid catalog version %q (want semver like v1.2.0)", doc.Version))
	} else if semver.Major(doc.Version) != SupportedMajor {
		errs = append(errs, fmt.Sprintf("unsupported catalog version %s (want %s.x)", doc.Version, SupportedMajor))
	}

	goals := make(map[string]bool, len(doc.Goals))
	for _, g := range doc.Goals {
		goals[g] = true
	}
	areas := make(map[string]bool, len(doc.SkillAreas))
	for _, a := range doc.SkillAreas {
		if areas[a.ID] {
			errs = append(errs, fmt.Sprintf("duplicate skill area %q", a.ID))
		}
		areas[a.ID] = true
	}

	idSet := make(map[string]bool, len(doc.Activities))
	for _, a := range doc.Activities {
		if a.ID == "" {
			errs = append(errs, "activity with empty ID")
			continue
		}
		if idSet[a.ID] {
			errs = append(errs, fmt.Sprintf("duplicate activity ID: %q", a.ID))
		}
		idSet[a.ID] = true

		if !a.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("activity %q: unknown kind %q", a.ID, a.Kind))
		}
		if !a.Difficulty.Valid() {
			errs = append(errs, fmt.Sprintf("activity %q: unknown difficulty %q", a.ID, a.Difficulty))
		}
		if a.Points < 0 {
			errs = append(errs, fmt.Sprintf("activity %q: points must be >= 0, got %d", a.ID, a.Points))
		}
		if a.EstimatedMinutes <= 0 {
			errs = append(errs, fmt.Sprintf("activity %q: estimated_minutes must be > 0, got %d", a.ID, a.EstimatedMinutes))
		}
		for _, g := range a.Goals {
			if !goals[g] {
				errs = append(errs, fmt.Sprintf("activity %q: unknown goal tag %q", a.ID, g))
			}
		}
		for _, s := range a.Styles {
			if !ValidStyle(s) {
				errs = append(errs, fmt.Sprintf("activity %q: unknown learning style %q", a.ID, s))
			}
		}
		if a.SkillArea != "" && !areas[a.SkillArea] {
			errs = append(errs, fmt.Sprintf("activity %q: unknown skill area %q", a.ID, a.SkillArea))
		}
		if a.Kind == KindLesson && len(a.Objectives) == 0 {
			errs = append(errs, fmt.Sprintf("lesson %q has no objectives", a.ID))
		}
	}

	if cycle := findCycle(doc.Activities, idSet); len(cycle) > 0 {
		errs = append(errs, fmt.Sprintf("cycle detected involving activities: %s", strings.Join(cycle, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// findCycle runs Kahn's algorithm over known edges and returns the IDs left
// with a positive in-degree, i.e. those on or behind a cycle.
func findCycle(activities []Activity, known map[string]bool) []string {
	inDegree := make(map[string]int, len(activities))
	adj := make(map[string][]string)
	for _, a := range activities {
		for _, p := range a.Prerequisites {
			if !known[p] {
				continue
			}
			inDegree[a.ID]++
			adj[p] = append(adj[p], a.ID)
		}
	}

	var queue []string
	for _, a := range activities {
		if inDegree[a.ID] == 0 {
			queue = append(queue, a.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, d := range adj[id] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	if visited >= len(activities) {
		return nil
	}
	var nodes []string
	for _, a := range activities {
		if inDegree[a.ID] > 0 {
			nodes = append(nodes, a.ID)
		}
	}
	return nodes
}
