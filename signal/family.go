package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/on-the-ground/loadable_go/shared/opt"
)

// ExecuteCreator builds the execute signals of one family.
type ExecuteCreator[R, P any] struct {
	family string
	t      Type
}

func (c ExecuteCreator[R, P]) Type() Type { return c.t }

// Of tags payload with the execute discriminant.
func (c ExecuteCreator[R, P]) Of(payload ParamsPayload[P]) Execute[R, P] {
	return Execute[R, P]{Type: c.t, ParamsPayload: payload, family: c.family}
}

// SuccessCreator builds the success signals of one family.
type SuccessCreator[R, P any] struct {
	family string
	t      Type
}

func (c SuccessCreator[R, P]) Type() Type { return c.t }

// Of tags payload with the success discriminant.
func (c SuccessCreator[R, P]) Of(payload SuccessPayload[R, P]) Success[R, P] {
	return Success[R, P]{Type: c.t, SuccessPayload: payload, family: c.family}
}

// FailedCreator builds the failed signals of one family.
type FailedCreator[R, P any] struct {
	family string
	t      Type
}

func (c FailedCreator[R, P]) Type() Type { return c.t }

// Of tags payload with the failed discriminant.
func (c FailedCreator[R, P]) Of(payload FailedPayload[P]) Failed[R, P] {
	return Failed[R, P]{Type: c.t, FailedPayload: payload, family: c.family}
}

// Family is the triad of signal creators produced by one factory call.
//
//	users := signal.MustDefine[[]User, signal.Void](registry, "Users")
//	store.Dispatch(ctx, users.Execute.Of(signal.NoParams))
//
// The zero Family is not usable; obtain one from New or Define.
type Family[R, P any] struct {
	Execute ExecuteCreator[R, P]
	Success SuccessCreator[R, P]
	Failed  FailedCreator[R, P]

	id   string
	name string
}

// New validates name and returns its family without registering it.
// Prefer Define, which also rejects names already used in a registry.
func New[R, P any](name string) (Family[R, P], error) {
	if err := ValidateName(name); err != nil {
		return Family[R, P]{}, err
	}
	return newFamily[R, P](name, ""), nil
}

func newFamily[R, P any](name, id string) Family[R, P] {
	return Family[R, P]{
		Execute: ExecuteCreator[R, P]{family: name, t: ExecuteType(name)},
		Success: SuccessCreator[R, P]{family: name, t: SuccessType(name)},
		Failed:  FailedCreator[R, P]{family: name, t: FailedType(name)},
		id:      id,
		name:    name,
	}
}

func (f Family[R, P]) Name() string { return f.name }

// ID is the registry assigned id, empty for families built with New.
func (f Family[R, P]) ID() string { return f.id }

// Types lists the execute, success and failed discriminants in that order.
func (f Family[R, P]) Types() [3]Type {
	return [3]Type{f.Execute.t, f.Success.t, f.Failed.t}
}

// Owns reports whether sig carries one of this family's discriminants.
func (f Family[R, P]) Owns(sig Signal) bool {
	return sig != nil && f.OwnsType(sig.SignalType())
}

func (f Family[R, P]) OwnsType(t Type) bool {
	if f.name == "" {
		return false
	}
	for _, own := range f.Types() {
		if own == t {
			return true
		}
	}
	return false
}

var ErrForeignType = errors.New("signal: type not owned by family")

// Decode reads a signal in wire shape, a JSON object whose "type" field is
// one of the family's discriminants and whose other fields are the payload.
// Absent payload fields are omitted on the wire, so a success carrying
// "data": null decodes to Some of the zero R, not to None.
func (f Family[R, P]) Decode(data []byte) (Signal, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode signal: %w", err)
	}
	if !f.OwnsType(head.Type) {
		return nil, fmt.Errorf("%w: %q not in %q", ErrForeignType, head.Type, f.name)
	}

	switch head.Type {
	case f.Execute.t:
		var s Execute[R, P]
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		s.family = f.name
		return s, nil
	case f.Success.t:
		var s Success[R, P]
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		if s.Data.IsNone() && hasField(data, "data") {
			var zero R
			s.Data = opt.Some(zero)
		}
		s.family = f.name
		return s, nil
	default:
		var s Failed[R, P]
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		s.family = f.name
		return s, nil
	}
}

func hasField(data []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}
