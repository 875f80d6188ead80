package progress

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Kind EventKind `json:"kind"`
}

// EncodeEvent serializes an event as a JSON object carrying a "kind" tag
// alongside the payload fields.
func EncodeEvent(ev Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEventKind)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	kind, _ := json.Marshal(ev.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// DecodeEvent parses a tagged JSON event. Unknown kinds fail with
// ErrInvalidEventKind; malformed payloads with ErrValidation.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", ErrValidation, err)
	}

	var (
		ev  Event
		err error
	)
	switch env.Kind {
	case KindLessonCompleted:
		ev, err = decodeAs[LessonCompleted](data)
	case KindChallengeSubmitted:
		ev, err = decodeAs[ChallengeSubmitted](data)
	case KindQuizCompleted:
		ev, err = decodeAs[QuizCompleted](data)
	case KindProjectCompleted:
		ev, err = decodeAs[ProjectCompleted](data)
	case KindPlaygroundUsed:
		ev = PlaygroundUsed{}
	case KindDailyChallengeCompleted:
		ev, err = decodeAs[DailyChallengeCompleted](data)
	case KindMicroChunkOutcome:
		ev, err = decodeAs[MicroChunkOutcome](data)
	case KindChunkShown:
		ev, err = decodeAs[ChunkShown](data)
	case KindChunkAcknowledged:
		ev, err = decodeAs[ChunkAcknowledged](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventKind, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrValidation, env.Kind, err)
	}
	return ev, nil
}

func decodeAs[T Event](data []byte) (Event, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
