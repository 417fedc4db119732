package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type answerKind uint8

const (
	answerNull answerKind = iota
	answerSingle
	answerMulti
)

// Answer is a recorded form value: null, a single string, or a set of
// strings from a multi-select question. The zero value is null.
type Answer struct {
	kind   answerKind
	values []string
}

// NullAnswer returns the null answer.
func NullAnswer() Answer { return Answer{} }

// Single wraps one string value.
func Single(v string) Answer { return Answer{kind: answerSingle, values: []string{v}} }

// Multi wraps a multi-select value. An empty set is still a multi answer, not null.
func Multi(vs ...string) Answer {
	return Answer{kind: answerMulti, values: append([]string{}, vs...)}
}

// IsNull reports whether nothing was recorded.
func (a Answer) IsNull() bool { return a.kind == answerNull }

// IsMulti reports whether the value came from a multi-select question.
func (a Answer) IsMulti() bool { return a.kind == answerMulti }

// Values normalises the answer to a list: a single value becomes a
// one-element list and null becomes nil.
func (a Answer) Values() []string {
	if a.kind == answerNull {
		return nil
	}
	return append([]string(nil), a.values...)
}

// String returns a single value as-is and joins a multi value with ", ".
func (a Answer) String() string {
	switch a.kind {
	case answerSingle:
		return a.values[0]
	case answerMulti:
		return strings.Join(a.values, ", ")
	default:
		return ""
	}
}

// IsEmpty reports whether the answer carries no non-blank value.
func (a Answer) IsEmpty() bool {
	for _, v := range a.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Contains reports whether v is one of the recorded values.
func (a Answer) Contains(v string) bool {
	for _, x := range a.values {
		if x == v {
			return true
		}
	}
	return false
}

// MarshalJSON encodes null, a string, or an array of strings.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case answerSingle:
		return json.Marshal(a.values[0])
	case answerMulti:
		return json.Marshal(a.values)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string, or an array of strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = NullAnswer()
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Single(s)
	case len(data) > 0 && data[0] == '[':
		var vs []string
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		*a = Multi(vs...)
	default:
		return fmt.Errorf("answer must be null, a string or an array of strings: %s", data)
	}
	return nil
}
