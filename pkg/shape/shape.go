package shape

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
)

// ErrNilFailure replaces a failing result that carries no error value.
var ErrNilFailure = errors.New("method failed without an error value")

// Form is the concrete candidate a return shape matched.
type Form int

const (
	FormImplicit Form = iota
	FormPlain
	FormResult
	FormPair
	FormError
)

func (f Form) String() string {
	switch f {
	case FormImplicit:
		return "implicit"
	case FormPlain:
		return "plain"
	case FormResult:
		return "result"
	case FormPair:
		return "pair"
	case FormError:
		return "error"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

// Shape is the resolved return shape of one method.
type Shape struct {
	Form    Form
	Success domain.TypeRef
	Error   domain.TypeRef
}

// Fallible reports whether the shape can produce a Failure.
func (s Shape) Fallible() bool {
	switch s.Form {
	case FormResult, FormPair, FormError:
		return true
	default:
		return false
	}
}

// Kind maps the shape to the return policy family, assuming explicit
// handling was requested for fallible shapes.
func (s Shape) Kind() domain.ReturnKind {
	switch {
	case s.Fallible():
		return domain.ExplicitFallible
	case s.Form == FormPlain:
		return domain.Plain
	default:
		return domain.Implicit
	}
}

// Normalize turns a method's raw results into an Outcome.
// Plain and implicit shapes never produce a Failure.
func (s Shape) Normalize(results []reflect.Value) domain.Outcome {
	switch s.Form {
	case FormResult:
		v, err, failed := results[0].Interface().(resultShape).parts()
		if failed {
			return domain.Failure(nonNil(err))
		}
		return domain.Success(v)
	case FormPair:
		if isNilError(results[1]) {
			return domain.Success(results[0].Interface())
		}
		return domain.Failure(results[1].Interface().(error))
	case FormError:
		if isNilError(results[0]) {
			return domain.Success(nil)
		}
		return domain.Failure(results[0].Interface().(error))
	case FormPlain:
		return domain.Success(results[0].Interface())
	default:
		return domain.Success(nil)
	}
}

// NormalizeValue applies the same resolution to a single Go value: a Result
// is unpacked, anything else is a success.
func NormalizeValue[T any](v T) domain.Outcome {
	if r, ok := any(v).(resultShape); ok {
		value, err, failed := r.parts()
		if failed {
			return domain.Failure(nonNil(err))
		}
		return domain.Success(value)
	}
	return domain.Success(v)
}

type candidate struct {
	name  string
	match func([]domain.TypeRef) (Shape, bool)
}

// candidates are tried in order; the first match wins.
var candidates = []candidate{
	{name: "result", match: matchResult},
	{name: "pair", match: matchPair},
	{name: "error", match: matchLoneError},
	{name: "plain", match: matchPlain},
}

// Match resolves the shape of a result list.
func Match(results []domain.TypeRef) (Shape, error) {
	for _, c := range candidates {
		if s, ok := c.match(results); ok {
			return s, nil
		}
	}
	return Shape{}, fmt.Errorf("unsupported return shape %s", describe(results))
}

func matchResult(results []domain.TypeRef) (Shape, bool) {
	if len(results) != 1 || len(results[0].Result) != 2 {
		return Shape{}, false
	}
	return Shape{Form: FormResult, Success: results[0].Result[0], Error: results[0].Result[1]}, true
}

func matchPair(results []domain.TypeRef) (Shape, bool) {
	if len(results) != 2 {
		return Shape{}, false
	}
	first, last := results[0], results[1]
	if !last.Error || last.Result != nil || first.Error || first.Result != nil {
		return Shape{}, false
	}
	return Shape{Form: FormPair, Success: first, Error: last}, true
}

func matchLoneError(results []domain.TypeRef) (Shape, bool) {
	if len(results) != 1 || !results[0].Error || results[0].Result != nil {
		return Shape{}, false
	}
	return Shape{Form: FormError, Error: results[0]}, true
}

func matchPlain(results []domain.TypeRef) (Shape, bool) {
	switch len(results) {
	case 0:
		return Shape{Form: FormImplicit}, true
	case 1:
		if results[0].Error || results[0].Result != nil {
			return Shape{}, false
		}
		return Shape{Form: FormPlain, Success: results[0]}, true
	default:
		return Shape{}, false
	}
}

func isNilError(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func nonNil(err error) error {
	if err == nil {
		return ErrNilFailure
	}
	return err
}

func describe(results []domain.TypeRef) string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
