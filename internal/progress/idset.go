package progress

import (
	"encoding/json"
	"slices"
)

// IDSet is a set of string IDs kept in insertion order. It serializes as a
// JSON array; duplicates are dropped on read.
type IDSet []string

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	return slices.Contains(s, id)
}

// Add inserts id and reports whether it was not already present.
func (s *IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Len returns the set size.
func (s IDSet) Len() int { return len(s) }

// Contains reports whether every member of other is in s.
func (s IDSet) Contains(other IDSet) bool {
	for _, id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Equal reports set equality, ignoring order.
func (s IDSet) Equal(other IDSet) bool {
	return len(s) == len(other) && s.Contains(other)
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = nil
	for _, id := range ids {
		s.Add(id)
	}
	return nil
}
