package fold

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/loadable_go/resource"
	"github.com/on-the-ground/loadable_go/signal"
)

var (
	// ErrForeignSignal is returned for a signal whose discriminant belongs to
	// another family.
	ErrForeignSignal = errors.New("fold: signal not owned by family")

	// ErrSignalMismatch is returned for a signal with this family's
	// discriminant but other resource or params types.
	ErrSignalMismatch = errors.New("fold: signal type mismatch")
)

// Reducer folds the signals of one family.
type Reducer[R, P any] struct {
	family signal.Family[R, P]
	same   func(a, b P) bool
}

type Option[R, P any] func(*Reducer[R, P])

// WithStaleGuard drops terminal signals whose params do not equal the
// slot's LoadingParams, or that arrive while nothing is loading.
// Without it every terminal signal is applied.
func WithStaleGuard[R, P any](same func(a, b P) bool) Option[R, P] {
	return func(r *Reducer[R, P]) {
		r.same = same
	}
}

// Comparable is the == equality, for use with WithStaleGuard.
func Comparable[P comparable]() func(a, b P) bool {
	return func(a, b P) bool { return a == b }
}

func NewReducer[R, P any](family signal.Family[R, P], opts ...Option[R, P]) Reducer[R, P] {
	r := Reducer[R, P]{family: family}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r Reducer[R, P]) Family() signal.Family[R, P] { return r.family }

// Reduce checks that sig belongs to the family and folds it into s.
//
// applied is false when the stale guard discarded the signal; the state is
// then returned unchanged.
func (r Reducer[R, P]) Reduce(s resource.State[R, P], sig signal.Signal) (next resource.State[R, P], applied bool, err error) {
	if !r.family.Owns(sig) {
		return s, false, fmt.Errorf("%w: %v not in %q", ErrForeignSignal, typeOf(sig), r.family.Name())
	}

	switch sig := sig.(type) {
	case signal.Execute[R, P]:
		if sig.Type != r.family.Execute.Type() {
			return s, false, r.kindMismatch(sig)
		}
		return Execute(s, sig), true, nil
	case signal.Success[R, P]:
		if sig.Type != r.family.Success.Type() {
			return s, false, r.kindMismatch(sig)
		}
		if r.stale(s, sig.Params) {
			return s, false, nil
		}
		return Success(s, sig), true, nil
	case signal.Failed[R, P]:
		if sig.Type != r.family.Failed.Type() {
			return s, false, r.kindMismatch(sig)
		}
		if r.stale(s, sig.Params) {
			return s, false, nil
		}
		return Failed(s, sig), true, nil
	default:
		return s, false, fmt.Errorf("%w: %T for %q", ErrSignalMismatch, sig, r.family.Name())
	}
}

// kindMismatch reports a signal whose discriminant names another member of
// the family than its Go type.
func (r Reducer[R, P]) kindMismatch(sig signal.Signal) error {
	return fmt.Errorf("%w: %T carries %q", ErrSignalMismatch, sig, sig.SignalType())
}

func (r Reducer[R, P]) stale(s resource.State[R, P], params P) bool {
	if r.same == nil {
		return false
	}
	loading, ok := s.LoadingParams.Get()
	if !ok || !s.IsLoading() {
		return true
	}
	return !r.same(loading, params)
}

func typeOf(sig signal.Signal) any {
	if sig == nil {
		return nil
	}
	return sig.SignalType()
}
