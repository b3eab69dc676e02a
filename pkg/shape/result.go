package shape

import "reflect"

// Result is the explicit fallible return type: either a success value or an error.
// The zero value is a successful Result holding the zero T.
type Result[T any, E error] struct {
	value  T
	err    E
	failed bool
}

// Ok builds a successful Result.
func Ok[T any, E error](v T) Result[T, E] {
	return Result[T, E]{value: v}
}

// Err builds a failed Result.
func Err[T any, E error](e E) Result[T, E] {
	return Result[T, E]{err: e, failed: true}
}

// IsOk reports whether the result holds a success value.
func (r Result[T, E]) IsOk() bool {
	return !r.failed
}

// Unwrap returns both halves; only one of them is meaningful.
func (r Result[T, E]) Unwrap() (T, E) {
	return r.value, r.err
}

// Value returns the success value (zero T on failure).
func (r Result[T, E]) Value() T {
	return r.value
}

// Failure returns the error (zero E on success).
func (r Result[T, E]) Failure() E {
	return r.err
}

func (r Result[T, E]) parts() (any, error, bool) {
	if r.failed {
		return nil, r.err, true
	}
	return r.value, nil, false
}

func (r Result[T, E]) types() (reflect.Type, reflect.Type) {
	return reflect.TypeFor[T](), reflect.TypeFor[E]()
}

// resultShape is implemented only by instantiations of Result.
type resultShape interface {
	parts() (any, error, bool)
	types() (reflect.Type, reflect.Type)
}
