package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/pylearn/internal/progress"
)

const recordSchemaURL = "schema://learner-record.json"

func intField() map[string]any { return map[string]any{"type": "integer", "minimum": 0} }

func nullable(t string) []any { return []any{t, "null"} }

func idArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// recordSchema is the persisted shape of a progress.Record.
var recordSchema = map[string]any{
	"type": "object",
	"required": []any{
		"id", "name", "experience_level", "learning_goals", "created_at", "last_activity",
		"lessons_completed", "challenges_completed", "quizzes_completed", "quizzes_taken",
		"playground_uses", "projects_completed",
		"completed_lesson_ids", "completed_challenge_ids", "completed_quiz_ids", "completed_project_ids",
		"points", "level", "streak", "last_streak_date", "achievements",
		"quiz_attempts", "average_quiz_score", "attempts", "spaced_repetition",
	},
	"properties": map[string]any{
		"id":   map[string]any{"type": "string", "minLength": 1},
		"name": map[string]any{"type": "string"},
		"experience_level": map[string]any{
			"type": "string",
			"enum": []any{"complete_beginner", "some_experience", "intermediate", "advanced", "expert"},
		},
		"learning_goals":          idArray(),
		"created_at":              map[string]any{"type": "string"},
		"last_activity":           map[string]any{"type": "string"},
		"lessons_completed":       intField(),
		"challenges_completed":    intField(),
		"quizzes_completed":       intField(),
		"quizzes_taken":           intField(),
		"playground_uses":         intField(),
		"projects_completed":      intField(),
		"completed_lesson_ids":    idArray(),
		"completed_challenge_ids": idArray(),
		"completed_quiz_ids":      idArray(),
		"completed_project_ids":   idArray(),
		"points":                  intField(),
		"level":                   map[string]any{"type": "integer", "minimum": 1},
		"streak":                  intField(),
		"last_streak_date": map[string]any{
			"type":    "string",
			"pattern": `^(\d{4}-\d{2}-\d{2})?$`,
		},
		"achievements": idArray(),
		"quiz_attempts": map[string]any{
			"type": nullable("array"),
			"items": map[string]any{
				"type":     "object",
				"required": []any{"quiz_id", "score", "max_score", "percentage", "timestamp"},
				"properties": map[string]any{
					"quiz_id":    map[string]any{"type": "string"},
					"score":      intField(),
					"max_score":  map[string]any{"type": "integer", "minimum": 1},
					"percentage": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				},
			},
		},
		"average_quiz_score": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"attempts": map[string]any{
			"type":                 nullable("object"),
			"additionalProperties": map[string]any{"type": "integer", "minimum": 1},
		},
		"spaced_repetition": map[string]any{
			"type": nullable("object"),
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []any{"last_review_at", "next_review_at", "last_performance", "attempts", "ease_factor"},
				"properties": map[string]any{
					"last_performance": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"attempts":         intField(),
					"stage":            map[string]any{"type": "integer", "minimum": 0, "maximum": 7},
					"recent":           map[string]any{"type": nullable("array"), "maxItems": 200},
				},
			},
		},
		"daily_challenges":    idArray(),
		"performance_history": map[string]any{"type": nullable("array"), "maxItems": progress.MaxHistory},
		"micro_lessons": map[string]any{
			"type": nullable("object"),
			"additionalProperties": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"state": map[string]any{"enum": []any{"not_started", "in_progress", "completed"}},
				},
			},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func recordValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler expects a plain decoded JSON value.
		raw, err := json.Marshal(recordSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal record schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse record schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(recordSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(recordSchemaURL)
	})
	return compiledSchema, compileErr
}

// ValidateRecordJSON checks raw record JSON against the record schema.
func ValidateRecordJSON(data []byte) error {
	schema, err := recordValidator()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// encodeRecord marshals rec and validates the result.
func encodeRecord(rec *progress.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}
	if err := ValidateRecordJSON(data); err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return data, nil
}

// decodeRecord validates and unmarshals stored record JSON.
func decodeRecord(data []byte) (*progress.Record, error) {
	if err := ValidateRecordJSON(data); err != nil {
		return nil, err
	}
	var rec progress.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return &rec, nil
}

// usable reports whether stored JSON decodes into a record that passes
// the progress checks.
func usable(data []byte) (*progress.Record, bool) {
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false
	}
	if progress.Check(rec) != nil {
		return nil, false
	}
	return rec, true
}
