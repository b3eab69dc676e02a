package shape

import (
	"reflect"
	"testing"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// alphabet covers every kind of result type the describer can produce.
var alphabet = []reflect.Type{
	reflect.TypeFor[uint32](),
	reflect.TypeFor[string](),
	reflect.TypeFor[counter](),
	reflect.TypeFor[error](),
	reflect.TypeFor[limitErr](),
	reflect.TypeFor[*limitErr](),
	reflect.TypeFor[Result[uint32, codeErr]](),
	reflect.TypeFor[Result[counter, error]](),
}

func resultsFor(idx []int) []domain.TypeRef {
	out := make([]domain.TypeRef, len(idx))
	for i, n := range idx {
		out[i] = Ref(alphabet[n], reflect.TypeFor[counter]())
	}
	return out
}

func TestShapeMatch_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.MaxSize = 4
	properties := gopter.NewProperties(parameters)

	indices := gen.SliceOf(gen.IntRange(0, len(alphabet)-1))

	properties.Property("at most one candidate matches any result list", prop.ForAll(
		func(idx []int) bool {
			results := resultsFor(idx)
			matched := 0
			for _, c := range candidates {
				if _, ok := c.match(results); ok {
					matched++
				}
			}
			_, err := Match(results)
			return matched <= 1 && (matched == 1) == (err == nil)
		},
		indices,
	))

	properties.Property("fallible shapes are never matched by the plain candidate", prop.ForAll(
		func(idx []int) bool {
			results := resultsFor(idx)
			s, err := Match(results)
			if err != nil || !s.Fallible() {
				return true
			}
			_, plain := matchPlain(results)
			return !plain
		},
		indices,
	))

	properties.Property("matching is deterministic", prop.ForAll(
		func(idx []int) bool {
			a, errA := Match(resultsFor(idx))
			b, errB := Match(resultsFor(idx))
			if (errA == nil) != (errB == nil) {
				return false
			}
			return reflect.DeepEqual(a, b)
		},
		indices,
	))

	properties.TestingRun(t)
}
