package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStateNotFound is returned when an account has no stored state.
var ErrStateNotFound = errors.New("state not found")

// ErrUnknownMethod is returned when a call names a method the contract does not expose.
var ErrUnknownMethod = errors.New("unknown method")

// ErrorKind names a build-time error category.
type ErrorKind string

const (
	BuildTimeClassificationError ErrorKind = "BuildTimeClassificationError"
	BuildTimeSchemaError         ErrorKind = "BuildTimeSchemaError"
)

// BuildError reports every problem found for one method while binding a contract.
type BuildError struct {
	Kind    ErrorKind
	Method  string
	Reasons []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: method %s: %s", e.Kind, e.Method, strings.Join(e.Reasons, "; "))
}

// Has reports whether any reason contains substr.
func (e *BuildError) Has(substr string) bool {
	for _, r := range e.Reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

// BuildErrors extracts every BuildError joined into err.
func BuildErrors(err error) []*BuildError {
	if err == nil {
		return nil
	}
	var out []*BuildError
	var walk func(error)
	walk = func(e error) {
		if be, ok := e.(*BuildError); ok {
			out = append(out, be)
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
			return
		}
		if inner := errors.Unwrap(e); inner != nil {
			walk(inner)
		}
	}
	walk(err)
	return out
}
