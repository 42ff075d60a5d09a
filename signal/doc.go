// Package signal generates matched triads of state-transition signals for
// asynchronously loaded resources.
//
// One call to Define (or New) for a family name N and types R (resource) and
// P (params) yields a Family with three creators:
//
//   - Execute, type "[N] Execute", payload ParamsPayload[P]
//   - Success, type "[N] Execute Success", payload SuccessPayload[R, P]
//   - Failed,  type "[N] Execute Failed", payload FailedPayload[P]
//
// The signals carry R and P as type parameters, so the compiler rejects a
// success built by one family where another family's signal is expected.
// Families sharing R and P are told apart by their discriminant at runtime.
//
// Names are checked when the family is defined, never when a signal is
// dispatched: they must be non-empty, free of '[' and ']' and of surrounding
// whitespace, and unique within a Registry. Breaking a rule is a
// configuration error (ErrConfiguration).
//
// Resources loaded without parameters use Void as P and the shared NoParams
// payload:
//
//	var reg = signal.NewRegistry()
//	var loadUsers = signal.MustDefine[[]User, signal.Void](reg, "Users")
//
//	sig := loadUsers.Execute.Of(signal.NoParams)
package signal
