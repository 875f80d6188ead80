package microlearn

import "github.com/abhisek/pylearn/internal/catalog"

var easyHints = []string{
	"Take your time, there is no penalty for re-reading.",
	"Run the example yourself and change one value at a time.",
	"Stuck? Re-read the key points above before answering.",
}

var hardConstraints = []string{
	"Optimize your solution for time and memory.",
	"Handle edge cases such as empty input and invalid values.",
	"Write clean, idiomatic Python with descriptive names.",
}

// adapt tunes a chunk to the learner's difficulty level. Very easy chunks
// get hints and twice the time; hard ones get less time and extra
// constraints.
func adapt(ch *Chunk, level catalog.Difficulty) {
	switch level.Normalize() {
	case catalog.VeryEasy:
		ch.EstimatedMinutes *= easyTimeFactor
		ch.Hints = append(ch.Hints, easyHints...)
	case catalog.Hard, catalog.VeryHard:
		ch.EstimatedMinutes *= hardTimeFactor
		ch.Constraints = append(ch.Constraints, hardConstraints...)
	}
}
