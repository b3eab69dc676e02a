package schema

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/holiman/uint256"
)

var (
	bigIntType  = reflect.TypeFor[big.Int]()
	uint256Type = reflect.TypeFor[uint256.Int]()
)

// Layout builds the binary layout of a Go type.
//
// Struct fields are encoded in declaration order and pointers as Option.
// big.Int is u128; uint256.Int is u256. Interfaces, channels, functions,
// complex numbers, platform-sized integers and structs with unexported
// fields have no layout. Named scalar types only work as struct fields.
func Layout(t reflect.Type) (Type, error) {
	b := &layoutBuilder{seen: map[reflect.Type]bool{}}
	return b.build(t, false)
}

type layoutBuilder struct {
	seen map[reflect.Type]bool
}

func (b *layoutBuilder) build(t reflect.Type, asField bool) (Type, error) {
	if isNamedScalar(t) && !asField {
		return nil, fmt.Errorf("named scalar %s is only encodable as a struct field", t)
	}

	switch t.Kind() {
	case reflect.Bool:
		return Bool(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(t.Bits()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint(t.Bits()), nil
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return nil, fmt.Errorf("platform-sized integer %s has no fixed layout", t)
	case reflect.Float32, reflect.Float64:
		return Float(t.Bits()), nil
	case reflect.String:
		return String(), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes(), nil
		}
		elem, err := b.build(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	case reflect.Array:
		if t == uint256Type {
			// encoded as four little-endian u64 limbs, spelled as a decimal string in JSON
			return Uint(256), nil
		}
		elem, err := b.build(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return Array(elem, t.Len()), nil
	case reflect.Pointer:
		elem, err := b.build(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return Option(elem), nil
	case reflect.Map:
		key, err := b.build(t.Key(), false)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		val, err := b.build(t.Elem(), false)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		return Map(key, val), nil
	case reflect.Struct:
		if t == bigIntType {
			return U128(), nil
		}
		return b.structLayout(t)
	default:
		return nil, fmt.Errorf("type %s (%s) has no binary layout", t, t.Kind())
	}
}

func (b *layoutBuilder) structLayout(t reflect.Type) (Type, error) {
	if b.seen[t] {
		return nil, fmt.Errorf("recursive type %s has no binary layout", t)
	}
	b.seen[t] = true
	defer delete(b.seen, t)

	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if skipField(f) {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("struct %s has unexported field %s", t, f.Name)
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			// embedded structs encode their fields inline
			inner, err := b.structLayout(f.Type)
			if err != nil {
				return nil, err
			}
			st := inner.(*StructType)
			for _, name := range st.fields {
				fields = append(fields, Field{Name: name, Type: st.schema[name]})
			}
			continue
		}
		ft, err := b.build(f.Type, true)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t, f.Name, err)
		}
		fields = append(fields, Field{Name: fieldName(f), Type: ft})
	}
	name := t.Name()
	if name == "" {
		name = "struct"
	}
	return Struct(name, fields...), nil
}

func isNamedScalar(t reflect.Type) bool {
	if t.PkgPath() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Uint8:
		return false
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func skipField(f reflect.StructField) bool {
	return f.Tag.Get("borsh_skip") == "true"
}

// fieldName is the JSON name of a field, which is how callers spell it.
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
