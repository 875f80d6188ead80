package progress

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
)

func clockDate(s string) clock.Date { return clock.Date(s) }

func TestEventCodec_RoundTrip(t *testing.T) {
	events := []Event{
		LessonCompleted{LessonID: "lesson_1", Points: 10},
		ChallengeSubmitted{ChallengeID: "challenge_1", Success: true, Points: 30},
		QuizCompleted{QuizID: "quiz_3", Correct: 8, Total: 10, RewardPoints: 25},
		ProjectCompleted{ProjectID: "project_1", Points: 100},
		PlaygroundUsed{},
		DailyChallengeCompleted{Date: "2025-03-10", RewardPoints: 20},
		MicroChunkOutcome{ConceptID: "variables", ActivityID: "lesson_1", Correct: true, Quality: 5, ElapsedSeconds: 60, Difficulty: catalog.Easy},
		ChunkShown{LessonID: "lesson_1", ChunkIndex: 2},
		ChunkAcknowledged{LessonID: "lesson_1", ChunkIndex: 5},
	}
	if len(events) != len(AllEventKinds()) {
		t.Fatalf("test covers %d kinds, want %d", len(events), len(AllEventKinds()))
	}
	for _, ev := range events {
		data, err := EncodeEvent(ev)
		if err != nil {
			t.Fatalf("EncodeEvent(%T): %v", ev, err)
		}
		if !strings.Contains(string(data), `"kind":"`+string(ev.Kind())+`"`) {
			t.Errorf("encoded %T lacks kind tag: %s", ev, data)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent(%s): %v", data, err)
		}
		if !reflect.DeepEqual(got, ev) {
			t.Errorf("round trip: got %#v, want %#v", got, ev)
		}
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{"kind":"teleport"}`)); !errors.Is(err, ErrInvalidEventKind) {
		t.Errorf("unknown kind err = %v, want ErrInvalidEventKind", err)
	}
	if _, err := DecodeEvent([]byte(`{"kind":`)); !errors.Is(err, ErrValidation) {
		t.Errorf("malformed JSON err = %v, want ErrValidation", err)
	}
	if _, err := DecodeEvent([]byte(`{"kind":"quiz_completed","correct":"eight"}`)); !errors.Is(err, ErrValidation) {
		t.Errorf("bad payload err = %v, want ErrValidation", err)
	}
}
