package helper

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("value not found")
	ErrUnexpectedType = errors.New("unexpected type")
)

// GetTypedValueOf asserts the result of a lookup to the expected type T.
// A missing value yields ErrNotFound, a value of another type
// ErrUnexpectedType.
func GetTypedValueOf[T any](getFn func() (any, bool, error)) (T, error) {
	var zero T

	res, ok, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}
	if !ok {
		return zero, ErrNotFound
	}

	val, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T, want %T", ErrUnexpectedType, res, zero)
	}

	return val, nil
}
