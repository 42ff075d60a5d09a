// Package fold folds execute, success and failed signals into a
// resource.State.
//
// The functions here are pure: each returns the next state and never
// modifies its input.
package fold

import (
	"github.com/on-the-ground/loadable_go/resource"
	"github.com/on-the-ground/loadable_go/shared/opt"
	"github.com/on-the-ground/loadable_go/signal"
)

// Execute marks the slot as loading with the signal's params.
func Execute[R, P any](s resource.State[R, P], sig signal.Execute[R, P]) resource.State[R, P] {
	s.Loading = opt.Some(true)
	s.LoadingParams = opt.Some(sig.Params)
	return s
}

// Success stores the loaded data, or keeps the previous results when the
// signal carries none. A success overwrites any recorded failure.
func Success[R, P any](s resource.State[R, P], sig signal.Success[R, P]) resource.State[R, P] {
	s.Results = sig.Data.OrElse(s.Results)
	s.Loading = opt.Some(false)
	s.Loaded = opt.Some(true)
	s.LastParams = opt.Some(sig.Params)
	s.LoadingParams = opt.None[P]()
	s.LastError = opt.None[any]()
	s.LastErrorMsg = opt.None[string]()
	return s
}

// Failed records the error and leaves results and loaded untouched, so the
// last good value stays readable.
func Failed[R, P any](s resource.State[R, P], sig signal.Failed[R, P]) resource.State[R, P] {
	s.Loading = opt.Some(false)
	s.LoadingParams = opt.None[P]()
	s.LastError = sig.Error
	s.LastErrorMsg = sig.ErrorMsg
	return s
}
