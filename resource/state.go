// Package resource defines the stored shape of one asynchronously loaded
// resource slot.
//
// A State is pure data. It is created once with Initial and afterwards only
// replaced by a reducer folding execute, success and failed signals
// (see package fold).
package resource

import "github.com/on-the-ground/loadable_go/shared/opt"

// State wraps loaded data in a store slot.
//
// R is the resource type, P the parameter type of the request that loads it.
// Use signal.Void for P when loading takes no parameters.
type State[R, P any] struct {
	// Results holds the last successfully loaded value, or the initial
	// value given to Initial if nothing has been loaded yet.
	Results R

	// Loaded is true after the first success and never reset by a failure.
	Loaded opt.Opt[bool]

	// Loading is true between an execute and its success or failure.
	Loading opt.Opt[bool]

	// LastParams are the params of the last successful load.
	LastParams opt.Opt[P]

	// LoadingParams are the params of the load in flight.
	// Only meaningful while Loading is true.
	LoadingParams opt.Opt[P]

	// LastErrorMsg and LastError describe the most recent failure.
	// They survive later executes and are overwritten by the next failure.
	LastErrorMsg opt.Opt[string]
	LastError    opt.Opt[any]
}

// Initial builds an empty slot around a caller supplied placeholder.
//
// There is no implicit default: pass an empty slice for collections, or a
// nil pointer for State[*T, P] when "no value" is the natural empty shape.
//
//	users := resource.Initial[[]User, signal.Void]([]User{})
//	user := resource.Initial[*User, int](nil)
func Initial[R, P any](initialValue R) State[R, P] {
	return State[R, P]{
		Results: initialValue,
	}
}

// IsLoaded reads Loaded, treating absent as false.
func (s State[R, P]) IsLoaded() bool {
	return s.Loaded.OrElse(false)
}

// IsLoading reads Loading, treating absent as false.
func (s State[R, P]) IsLoading() bool {
	return s.Loading.OrElse(false)
}

// HasError reports whether any failure has been recorded.
func (s State[R, P]) HasError() bool {
	return s.LastError.IsSome() || s.LastErrorMsg.IsSome()
}
