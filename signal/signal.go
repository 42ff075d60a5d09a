package signal

import "fmt"

// Signal is a tagged, immutable event dispatched into a store.
// Only Execute, Success and Failed implement it.
type Signal interface {
	SignalType() Type
	Kind() Kind
	FamilyName() string
	sealedSignal()
}

// phantom binds a signal to the resource and params types of the family
// that created it. It has no size.
type phantom[R, P any] struct {
	_ [0]*R
	_ [0]*P
}

var (
	_ Signal = Execute[any, any]{}
	_ Signal = Success[any, any]{}
	_ Signal = Failed[any, any]{}
)

// Execute asks for the resource to be loaded with Params.
type Execute[R, P any] struct {
	Type Type `json:"type"`
	ParamsPayload[P]

	family string
	tag    phantom[R, P]
}

func (s Execute[R, P]) SignalType() Type   { return s.Type }
func (s Execute[R, P]) Kind() Kind         { return KindExecute }
func (s Execute[R, P]) FamilyName() string { return s.family }
func (s Execute[R, P]) sealedSignal()      {}

// Success reports a completed load.
type Success[R, P any] struct {
	Type Type `json:"type"`
	SuccessPayload[R, P]

	family string
	tag    phantom[R, P]
}

func (s Success[R, P]) SignalType() Type   { return s.Type }
func (s Success[R, P]) Kind() Kind         { return KindSuccess }
func (s Success[R, P]) FamilyName() string { return s.family }
func (s Success[R, P]) sealedSignal()      {}

// Failed reports a load that did not complete.
type Failed[R, P any] struct {
	Type Type `json:"type"`
	FailedPayload[P]

	family string
	tag    phantom[R, P]
}

func (s Failed[R, P]) SignalType() Type   { return s.Type }
func (s Failed[R, P]) Kind() Kind         { return KindFailed }
func (s Failed[R, P]) FamilyName() string { return s.family }
func (s Failed[R, P]) sealedSignal()      {}

// Match calls the handler matching the concrete type of sig.
// It panics if sig belongs to a family with other type parameters.
func Match[R, P, T any](
	sig Signal,
	onExecute func(Execute[R, P]) T,
	onSuccess func(Success[R, P]) T,
	onFailed func(Failed[R, P]) T,
) T {
	switch s := sig.(type) {
	case Execute[R, P]:
		return onExecute(s)
	case Success[R, P]:
		return onSuccess(s)
	case Failed[R, P]:
		return onFailed(s)
	default:
		panic(fmt.Sprintf("exhaustive match fallback, signal type: %T", sig))
	}
}
