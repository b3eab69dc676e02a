package shape

import (
	"context"
	"fmt"
	"reflect"

	"github.com/aretw0/covenant/pkg/domain"
)

var (
	errorType       = reflect.TypeFor[error]()
	contextType     = reflect.TypeFor[context.Context]()
	resultShapeType = reflect.TypeFor[resultShape]()
	persisterType   = reflect.TypeFor[domain.StatePersister]()
)

// Ref describes a live Go type. self is the contract state type; both S and *S
// are treated as the state itself.
func Ref(t, self reflect.Type) domain.TypeRef {
	ref := domain.TypeRef{Name: t.String(), Go: t}

	if t == contextType {
		ref.Context = true
		return ref
	}
	if self != nil && (t == self || t == reflect.PointerTo(self)) {
		ref.Self = true
	}
	if t.Implements(resultShapeType) {
		succ, fail := reflect.Zero(t).Interface().(resultShape).types()
		ref.Result = []domain.TypeRef{Ref(succ, self), Ref(fail, self)}
		ref.Name = fmt.Sprintf("Result[%s, %s]", succ, fail)
		return ref
	}
	if t.Implements(errorType) {
		ref.Error = true
		ref.Interface = t.Kind() == reflect.Interface
		ref.Persist = t.Implements(persisterType)
	}
	return ref
}

// Refs describes every result type of a function type.
func Refs(fn reflect.Type, self reflect.Type) []domain.TypeRef {
	out := make([]domain.TypeRef, fn.NumOut())
	for i := range out {
		out[i] = Ref(fn.Out(i), self)
	}
	return out
}
