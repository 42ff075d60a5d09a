// Package opt provides an explicit optional value.
//
// Opt distinguishes "absent" from the zero value of T, which plain fields
// cannot do for bool, string or generic parameters. The zero Opt is absent.
package opt

import (
	"encoding/json"
	"fmt"
)

// Opt holds either a value of type T or nothing.
type Opt[T any] struct {
	value T
	ok    bool
}

// Some wraps v as a present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Opt[T]) IsSome() bool { return o.ok }
func (o Opt[T]) IsNone() bool { return !o.ok }

// OrElse returns the value if present, def otherwise.
func (o Opt[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

func (o Opt[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// IsZero reports absence, so `json:",omitzero"` drops absent fields.
func (o Opt[T]) IsZero() bool { return !o.ok }

// MarshalJSON encodes the value, or null when absent.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent and anything else as Some.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
