package engine

import "encoding/json"

// State tells a Maybe apart from a plain zero value.
type State int

const (
	// NotApplicable marks a value that is legitimately absent
	// (no data row, empty cell).
	NotApplicable State = iota
	// Present marks a usable value.
	Present
	// Invalid marks a value that existed but could not be parsed.
	Invalid
)

func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case Invalid:
		return "invalid"
	default:
		return "not_applicable"
	}
}

// Maybe carries either a value or the reason there is none.
type Maybe[T any] struct {
	value T
	state State
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, state: Present}
}

// None returns a NotApplicable Maybe.
func None[T any]() Maybe[T] {
	return Maybe[T]{state: NotApplicable}
}

// Failed returns an Invalid Maybe.
func Failed[T any]() Maybe[T] {
	return Maybe[T]{state: Invalid}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.state == Present
}

// OrElse returns the value, or fallback when it is not present.
func (m Maybe[T]) OrElse(fallback T) T {
	if m.state == Present {
		return m.value
	}
	return fallback
}

func (m Maybe[T]) State() State { return m.state }

func (m Maybe[T]) IsPresent() bool { return m.state == Present }

// MarshalJSON encodes absent and invalid values as null.
func (m Maybe[T]) MarshalJSON() ([]byte, error) {
	if m.state != Present {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}
