package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSnapshot is returned when a component snapshot cannot be decoded
// or lacks the keys needed to identify the component.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is a component snapshot decoded associatively. Only memo.path,
// memo.name and data are interpreted; everything else is carried as-is.
type Snapshot map[string]any

// ParseSnapshot decodes the serialized snapshot string of a component payload.
func ParseSnapshot(raw string) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedSnapshot)
	}
	if _, ok := s.Path(); !ok {
		return nil, fmt.Errorf("%w: memo.path missing", ErrMalformedSnapshot)
	}
	return s, nil
}

func (s Snapshot) memo() map[string]any {
	m, _ := s["memo"].(map[string]any)
	return m
}

// Path returns memo.path and whether it was present as a string.
func (s Snapshot) Path() (string, bool) {
	p, ok := s.memo()["path"].(string)
	return p, ok
}

// Name returns memo.name, the registered component name.
func (s Snapshot) Name() string {
	n, _ := s.memo()["name"].(string)
	return n
}

// Data returns the component data state, never nil.
func (s Snapshot) Data() map[string]any {
	if d, ok := s["data"].(map[string]any); ok {
		return d
	}
	return map[string]any{}
}
