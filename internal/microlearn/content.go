package microlearn

import (
	"fmt"

	"github.com/abhisek/pylearn/internal/catalog"
)

// assemble builds the fixed chunk template for a lesson: an introduction,
// four chunks per objective and a closing summary.
func assemble(a catalog.Activity) []Chunk {
	chunks := make([]Chunk, 0, a.ChunkCount())
	add := func(ch Chunk) {
		ch.Index = len(chunks)
		ch.ID = ChunkID(a.ID, ch.Index)
		chunks = append(chunks, ch)
	}

	add(introChunk(a))
	for _, concept := range a.Objectives {
		sec, ok := a.Content.Section(concept)
		if !ok {
			sec = catalog.Section{Concept: concept}
		}
		for _, t := range perObjective {
			add(objectiveChunk(t, concept, sec))
		}
	}
	add(summaryChunk(a))
	return chunks
}

func introChunk(a catalog.Activity) Chunk {
	text := fmt.Sprintf("In this lesson you will learn about %s.", joinObjectives(a.Objectives))
	if a.Content != nil && a.Content.Intro != "" {
		text = a.Content.Intro
	}
	return Chunk{
		Type:        ConceptIntroduction,
		Title:       "Introduction: " + a.Title,
		Body:        Body{Text: text, KeyPoints: objectivePoints(a.Objectives)},
		Interactive: []Interactive{{Type: ElementContinue, Prompt: "Let's begin"}},
	}
}

func objectiveChunk(t ChunkType, concept string, sec catalog.Section) Chunk {
	ch := Chunk{Type: t, Concept: concept}
	switch t {
	case ConceptIntroduction:
		ch.Title = "Understanding " + concept
		ch.Body = Body{Text: sec.Explanation, KeyPoints: sec.KeyPoints}
		if ch.Body.Text == "" {
			ch.Body.Text = fmt.Sprintf("Let's explore %s and where it fits in a Python program.", concept)
		}
		ch.Interactive = []Interactive{{Type: ElementContinue, Prompt: "Got it"}}
	case ExampleWalkthrough:
		ch.Title = "Example: " + concept
		ch.Body = Body{Text: fmt.Sprintf("Walk through this example of %s line by line.", concept), Code: sec.Example}
		if sec.Example == "" {
			ch.Body.Text = fmt.Sprintf("Try writing a short snippet that uses %s in the playground.", concept)
		}
		ch.Interactive = []Interactive{{Type: ElementCodeRunner, Starter: sec.Example}}
	case PracticeExercise:
		ch.Title = "Practice: " + concept
		prompt := fmt.Sprintf("Write a small program that uses %s.", concept)
		starter := ""
		if sec.Exercise != nil {
			prompt = sec.Exercise.Prompt
			starter = sec.Exercise.Starter
		}
		ch.Body = Body{Text: prompt, Code: starter}
		ch.Interactive = []Interactive{{Type: ElementCodeEditor, Prompt: prompt, Starter: starter}}
	case KnowledgeCheck:
		ch.Title = "Check: " + concept
		if sec.Check != nil {
			answer := sec.Check.Answer
			ch.Body = Body{Text: sec.Check.Question}
			ch.Interactive = []Interactive{{
				Type:    ElementMultipleChoice,
				Prompt:  sec.Check.Question,
				Options: sec.Check.Options,
				Answer:  &answer,
			}}
			break
		}
		q := fmt.Sprintf("In your own words, when would you use %s?", concept)
		ch.Body = Body{Text: q}
		ch.Interactive = []Interactive{{Type: ElementReflection, Prompt: q}}
	}
	return ch
}

func summaryChunk(a catalog.Activity) Chunk {
	text := fmt.Sprintf("You have worked through %s.", joinObjectives(a.Objectives))
	if a.Content != nil && a.Content.Summary != "" {
		text = a.Content.Summary
	}
	return Chunk{
		Type:        LessonSummary,
		Title:       "Summary: " + a.Title,
		Body:        Body{Text: text, KeyPoints: objectivePoints(a.Objectives)},
		Interactive: []Interactive{{Type: ElementContinue, Prompt: "Complete lesson"}},
	}
}

func objectivePoints(objectives []string) []string {
	points := make([]string, len(objectives))
	for i, o := range objectives {
		points[i] = "Understand " + o
	}
	return points
}

func joinObjectives(objectives []string) string {
	switch len(objectives) {
	case 0:
		return "this topic"
	case 1:
		return objectives[0]
	}
	out := ""
	for i, o := range objectives {
		switch {
		case i == 0:
			out = o
		case i == len(objectives)-1:
			out += " and " + o
		default:
			out += ", " + o
		}
	}
	return out
}
