package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/shape"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// Object is the schema of one value for one codec. Exactly one of JSON and
// Binary is set, matching Choice.
type Object struct {
	Choice domain.SerializationChoice
	JSON   *openapi3.SchemaRef
	Binary Type

	// Unit is set for the absent value of implicit returns.
	Unit bool
}

// Name is a short human-readable description of the object.
func (o Object) Name() string {
	if o.Unit {
		return "()"
	}
	if o.Binary != nil {
		return o.Binary.Name()
	}
	if o.JSON == nil || o.JSON.Value == nil {
		return "()"
	}
	if o.JSON.Value.Type != nil && len(*o.JSON.Value.Type) > 0 {
		return (*o.JSON.Value.Type)[0]
	}
	return "any"
}

// MarshalJSON renders the JSON schema as-is and the binary layout by name.
func (o Object) MarshalJSON() ([]byte, error) {
	if o.Choice == domain.CompactBinary {
		return json.Marshal(map[string]string{"layout": o.Name()})
	}
	if o.JSON == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.JSON)
}

// Derive produces the schema of a shape's success type for a codec. It
// consumes the shape already matched for normalization, so both always agree
// on the success type.
func Derive(s shape.Shape, choice domain.SerializationChoice) (Object, error) {
	obj, err := ForType(s.Success.Go, choice)
	if err != nil {
		return Object{}, &domain.BuildError{
			Kind:    domain.BuildTimeSchemaError,
			Reasons: []string{fmt.Sprintf("success type %s: %v", s.Success, err)},
		}
	}
	return obj, nil
}

// ForType derives the schema of a Go type. A nil type is the unit value.
func ForType(t reflect.Type, choice domain.SerializationChoice) (Object, error) {
	switch choice {
	case domain.CompactBinary:
		if t == nil {
			return Object{Choice: choice, Binary: Unit(), Unit: true}, nil
		}
		layout, err := Layout(t)
		if err != nil {
			return Object{}, err
		}
		return Object{Choice: choice, Binary: layout}, nil
	case domain.StructuredText:
		if t == nil {
			return Object{Choice: choice, JSON: UnitSchema(), Unit: true}, nil
		}
		ref, err := jsonSchema(t)
		if err != nil {
			return Object{}, err
		}
		return Object{Choice: choice, JSON: ref}, nil
	default:
		return Object{}, fmt.Errorf("unknown serialization %v", choice)
	}
}

// UnitSchema describes the absent value.
func UnitSchema() *openapi3.SchemaRef {
	s := openapi3.NewSchema()
	s.Nullable = true
	s.Description = "no value"
	return openapi3.NewSchemaRef("", s)
}

func jsonSchema(t reflect.Type) (*openapi3.SchemaRef, error) {
	if err := checkJSON(t, map[reflect.Type]bool{}); err != nil {
		return nil, err
	}
	gen := openapi3gen.NewGenerator(
		openapi3gen.UseAllExportedFields(),
		openapi3gen.SchemaCustomizer(customEncoding),
	)
	ref, err := gen.GenerateSchemaRef(t)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, fmt.Errorf("type %s has no JSON schema", t)
	}
	return inline(ref, map[*openapi3.Schema]bool{}), nil
}

const componentPrefix = "#/components/schemas/"

// inline drops the type-name refs openapi3gen leaves on every node, so the
// schema is self-contained. A recursive type is cut where it refers back to
// itself.
func inline(ref *openapi3.SchemaRef, seen map[*openapi3.Schema]bool) *openapi3.SchemaRef {
	if ref == nil {
		return nil
	}
	if name, ok := strings.CutPrefix(ref.Ref, componentPrefix); ok {
		return openapi3.NewSchemaRef("", &openapi3.Schema{Description: "recursive " + name})
	}
	out := &openapi3.SchemaRef{Value: ref.Value}
	s := ref.Value
	if s == nil || seen[s] || ref == openapi3gen.RefSchemaRef {
		return out
	}
	seen[s] = true
	for name, p := range s.Properties {
		s.Properties[name] = inline(p, seen)
	}
	s.Items = inline(s.Items, seen)
	s.Not = inline(s.Not, seen)
	if s.AdditionalProperties.Schema != nil {
		s.AdditionalProperties.Schema = inline(s.AdditionalProperties.Schema, seen)
	}
	for _, refs := range []openapi3.SchemaRefs{s.OneOf, s.AnyOf, s.AllOf} {
		for i, r := range refs {
			refs[i] = inline(r, seen)
		}
	}
	return out
}

var jsonMarshalerType = reflect.TypeFor[json.Marshaler]()

// customEncoding drops the reflected shape of types that marshal themselves,
// such as big.Int (a number) or uint256.Int (a decimal string).
func customEncoding(name string, t reflect.Type, tag reflect.StructTag, s *openapi3.Schema) error {
	if t.Kind() != reflect.Interface && (t.Implements(jsonMarshalerType) || reflect.PointerTo(t).Implements(jsonMarshalerType)) {
		*s = openapi3.Schema{Description: "custom encoding of " + t.String()}
	}
	return nil
}

// checkJSON rejects kinds encoding/json cannot encode. Types with their own
// MarshalJSON are trusted.
func checkJSON(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	if t.Implements(jsonMarshalerType) || reflect.PointerTo(t).Implements(jsonMarshalerType) {
		return nil
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Errorf("type %s (%s) has no JSON representation", t, t.Kind())
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return checkJSON(t.Elem(), seen)
	case reflect.Map:
		switch t.Key().Kind() {
		case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return fmt.Errorf("map key %s has no JSON representation", t.Key())
		}
		return checkJSON(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkJSON(f.Type, seen); err != nil {
				return fmt.Errorf("field %s.%s: %w", t, f.Name, err)
			}
		}
	}
	return nil
}
