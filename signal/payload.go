package signal

import "github.com/on-the-ground/loadable_go/shared/opt"

// Void is the params type of resources loaded without parameters.
type Void = struct{}

// ParamsPayload is the payload of an execute signal.
type ParamsPayload[P any] struct {
	Params P `json:"params"`
}

// NoParams is the one payload shared by every execute signal whose params
// type is Void.
var NoParams = ParamsPayload[Void]{}

// SuccessPayload is the payload of a success signal.
// An absent Data keeps the previously loaded results.
type SuccessPayload[R, P any] struct {
	Data   opt.Opt[R] `json:"data,omitzero"`
	Params P          `json:"params"`
}

// FailedPayload is the payload of a failed signal.
//
// Error holds the in-process failure value and is not encoded; ErrorMsg is
// the field that travels on the wire.
type FailedPayload[P any] struct {
	Params   P               `json:"params"`
	Error    opt.Opt[any]    `json:"-"`
	ErrorMsg opt.Opt[string] `json:"errorMsg,omitzero"`
}

// Params builds an execute payload.
func Params[P any](params P) ParamsPayload[P] {
	return ParamsPayload[P]{Params: params}
}

// Succeeded builds a success payload carrying data.
func Succeeded[R, P any](data R, params P) SuccessPayload[R, P] {
	return SuccessPayload[R, P]{Data: opt.Some(data), Params: params}
}

// Errored builds a failed payload from err, filling both Error and ErrorMsg.
// A nil err yields a payload with neither set.
func Errored[P any](params P, err error) FailedPayload[P] {
	p := FailedPayload[P]{Params: params}
	if err != nil {
		p.Error = opt.Some[any](err)
		p.ErrorMsg = opt.Some(err.Error())
	}
	return p
}
