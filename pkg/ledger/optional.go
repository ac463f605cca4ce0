package ledger

import (
	"bytes"
	"encoding/json"
)

type optionalState uint8

const (
	stateUnchanged optionalState = iota
	stateClear
	stateSet
)

// Optional is a partial-update field: unchanged, explicitly cleared, or set.
// Decoded from JSON, an omitted key is unchanged and null is a clear.
type Optional[T any] struct {
	state optionalState
	value T
}

// Clear removes the current value.
func Clear[T any]() Optional[T] { return Optional[T]{state: stateClear} }

// Set replaces the current value with v.
func Set[T any](v T) Optional[T] { return Optional[T]{state: stateSet, value: v} }

func (o Optional[T]) IsUnchanged() bool { return o.state == stateUnchanged }
func (o Optional[T]) IsClear() bool     { return o.state == stateClear }
func (o Optional[T]) IsSet() bool       { return o.state == stateSet }

// Value returns the set value, or the zero value.
func (o Optional[T]) Value() T { return o.value }

// Ptr returns nil unless the field is set.
func (o Optional[T]) Ptr() *T {
	if o.state != stateSet {
		return nil
	}
	v := o.value
	return &v
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.state != stateSet {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
