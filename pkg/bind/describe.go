package bind

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/shape"
)

// Annotated is implemented by state types that attach markers to methods.
// Keys are Go method names or exposed (snake_case) names.
type Annotated interface {
	Markers() map[string][]domain.Marker
}

const markersMethod = "Markers"

// Constructor is a free function that builds the initial state.
type Constructor struct {
	Name    string
	Fn      any
	Markers []domain.Marker
}

// described pairs a method description with the function that implements it.
type described struct {
	desc   domain.MethodDescription
	goName string
	fn     reflect.Value
}

// Describe lists the exposed methods of a state type and its constructors,
// as the classifier sees them. Methods marked skip are left out.
func Describe(state reflect.Type, ctors ...Constructor) ([]domain.MethodDescription, error) {
	ds, err := describe(state, ctors)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MethodDescription, len(ds))
	for i, d := range ds {
		out[i] = d.desc
	}
	return out, nil
}

func describe(state reflect.Type, ctors []Constructor) ([]described, error) {
	if state == nil || state.Kind() != reflect.Struct {
		return nil, fmt.Errorf("bind: state type must be a struct, got %v", state)
	}
	annotations := markersOf(state)
	ptr := reflect.PointerTo(state)

	var out []described
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if m.Name == markersMethod {
			continue
		}
		markers := annotations[m.Name]
		if markers == nil {
			markers = annotations[SnakeCase(m.Name)]
		}
		if domain.NewMarkerSet(markers).Has(domain.MarkerSkip) {
			continue
		}
		recv := domain.PointerReceiver
		if _, ok := state.MethodByName(m.Name); ok {
			recv = domain.ValueReceiver
		}
		out = append(out, described{
			desc: domain.MethodDescription{
				Name:     SnakeCase(m.Name),
				Receiver: recv,
				Params:   params(m.Type, 1, state),
				Results:  shape.Refs(m.Type, state),
				Markers:  markers,
			},
			goName: m.Name,
			fn:     m.Func,
		})
	}

	for _, c := range ctors {
		fn := reflect.ValueOf(c.Fn)
		if fn.Kind() != reflect.Func {
			return nil, fmt.Errorf("bind: constructor %s is %T, not a function", c.Name, c.Fn)
		}
		markers := c.Markers
		if !domain.NewMarkerSet(markers).Has(domain.MarkerInit, domain.MarkerInitIgnoreState) {
			markers = append([]domain.Marker{domain.MarkerInit}, markers...)
		}
		out = append(out, described{
			desc: domain.MethodDescription{
				Name:     c.Name,
				Receiver: domain.NoReceiver,
				Params:   params(fn.Type(), 0, state),
				Results:  shape.Refs(fn.Type(), state),
				Markers:  markers,
			},
			goName: c.Name,
			fn:     fn,
		})
	}
	return out, nil
}

func markersOf(state reflect.Type) map[string][]domain.Marker {
	annotated, ok := reflect.Zero(state).Interface().(Annotated)
	if !ok {
		if p, okPtr := reflect.New(state).Interface().(Annotated); okPtr {
			annotated = p
		} else {
			return nil
		}
	}
	return annotated.Markers()
}

// unmatchedMarkers lists the Markers keys that name no method of the state.
func unmatchedMarkers(state reflect.Type) []string {
	annotations := markersOf(state)
	if len(annotations) == 0 {
		return nil
	}
	known := make(map[string]bool)
	ptr := reflect.PointerTo(state)
	for i := 0; i < ptr.NumMethod(); i++ {
		name := ptr.Method(i).Name
		if name == markersMethod {
			continue
		}
		known[name] = true
		known[SnakeCase(name)] = true
	}
	var out []string
	for key := range annotations {
		if !known[key] {
			out = append(out, fmt.Sprintf("marker key %q matches no method", key))
		}
	}
	sort.Strings(out)
	return out
}

func params(fn reflect.Type, from int, state reflect.Type) []domain.Param {
	var out []domain.Param
	n := 0
	for i := from; i < fn.NumIn(); i++ {
		ref := shape.Ref(fn.In(i), state)
		name := "ctx"
		if !ref.Context {
			name = fmt.Sprintf("arg%d", n)
			n++
		}
		out = append(out, domain.Param{Name: name, Type: ref})
	}
	return out
}
