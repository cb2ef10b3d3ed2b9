package resolve

import "fmt"

// SettingState is the state of a raw setting.
type SettingState int

const (
	// StateUnset means no layer supplied a value.
	StateUnset SettingState = iota
	// StateAuto means the user asked for inference.
	StateAuto
	// StateExplicit means the user supplied a concrete value.
	StateExplicit
)

// Setting is the raw half of an attribute: what the user wrote, before
// inference. It never holds the resolved value.
type Setting[T any] struct {
	state SettingState
	value T
}

// Unset returns a setting with no value.
func Unset[T any]() Setting[T] {
	return Setting[T]{}
}

// Auto returns a setting asking for inference.
func Auto[T any]() Setting[T] {
	return Setting[T]{state: StateAuto}
}

// Explicit returns a setting holding v.
func Explicit[T any](v T) Setting[T] {
	return Setting[T]{state: StateExplicit, value: v}
}

// State returns the setting state.
func (s Setting[T]) State() SettingState { return s.state }

// IsUnset reports whether no value was supplied.
func (s Setting[T]) IsUnset() bool { return s.state == StateUnset }

// IsAuto reports whether inference was requested.
func (s Setting[T]) IsAuto() bool { return s.state == StateAuto }

// IsExplicit reports whether a concrete value was supplied.
func (s Setting[T]) IsExplicit() bool { return s.state == StateExplicit }

// Value returns the explicit value.
func (s Setting[T]) Value() (T, bool) {
	return s.value, s.state == StateExplicit
}

// String renders the raw form: "", "auto" or the value.
func (s Setting[T]) String() string {
	switch s.state {
	case StateAuto:
		return AutoValue
	case StateExplicit:
		return fmt.Sprint(s.value)
	default:
		return ""
	}
}

// AutoValue is the raw sentinel requesting inference.
const AutoValue = "auto"
