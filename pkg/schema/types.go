package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Type is one node of a binary layout descriptor.
// Validate checks a decoded value (JSON-decoded or a live Go value) against
// the layout before it is re-encoded.
type Type interface {
	// Name returns the layout name (e.g., "u32", "[string]", "Option<u8>").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// IntegerType validates fixed-width integers.
type IntegerType struct {
	bits   int
	signed bool
}

func (t *IntegerType) Name() string {
	if t.signed {
		return fmt.Sprintf("i%d", t.bits)
	}
	return fmt.Sprintf("u%d", t.bits)
}

// Bits returns the width of the integer.
func (t *IntegerType) Bits() int { return t.bits }

// Signed reports whether negative values are allowed.
func (t *IntegerType) Signed() bool { return t.signed }

func (t *IntegerType) Validate(value any) error {
	n, ok := toBig(value)
	if !ok {
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
	lo, hi := t.bounds()
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return fmt.Errorf("value %s out of range for %s", n, t.Name())
	}
	return nil
}

func (t *IntegerType) bounds() (*big.Int, *big.Int) {
	one := big.NewInt(1)
	if t.signed {
		hi := new(big.Int).Lsh(one, uint(t.bits-1))
		lo := new(big.Int).Neg(hi)
		return lo, hi.Sub(hi, one)
	}
	hi := new(big.Int).Lsh(one, uint(t.bits))
	return new(big.Int), hi.Sub(hi, one)
}

// toBig accepts Go integers, whole floats (from JSON unmarshaling),
// json.Number and decimal strings.
func toBig(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, false
		}
		n, _ := big.NewFloat(v).Int(nil)
		return n, true
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		return n, ok
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		return n, ok
	case big.Int:
		return new(big.Int).Set(&v), true
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case fmt.Stringer:
		// uint256.Int and similar decimal-printing integers
		n, ok := new(big.Int).SetString(v.String(), 10)
		return n, ok
	default:
		return nil, false
	}
}

// FloatType validates floating-point values.
type FloatType struct {
	bits int
}

func (t *FloatType) Name() string { return fmt.Sprintf("f%d", t.bits) }

func (t *FloatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		if t.bits == 32 && math.Abs(v) > math.MaxFloat32 {
			return fmt.Errorf("value %g out of range for f32", v)
		}
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected %s: %w", t.Name(), err)
		}
		return nil
	default:
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// BytesType is a length-prefixed byte string. In JSON it travels as base64.
type BytesType struct{}

func (t *BytesType) Name() string { return "bytes" }

func (t *BytesType) Validate(value any) error {
	switch value.(type) {
	case []byte, string:
		return nil
	default:
		return fmt.Errorf("expected bytes, got %T", value)
	}
}

// UnitType is the empty value.
type UnitType struct{}

func (t *UnitType) Name() string { return "()" }

func (t *UnitType) Validate(value any) error {
	if value != nil {
		return fmt.Errorf("expected no value, got %T", value)
	}
	return nil
}

// SliceType validates length-prefixed sequences of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	return validateElems(t.elemType, rv)
}

// ArrayType validates fixed-length sequences.
type ArrayType struct {
	elemType Type
	length   int
}

func (t *ArrayType) Name() string {
	return fmt.Sprintf("[%s;%d]", t.elemType.Name(), t.length)
}

func (t *ArrayType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}
	if rv.Len() != t.length {
		return fmt.Errorf("expected %d elements, got %d", t.length, rv.Len())
	}
	return validateElems(t.elemType, rv)
}

func validateElems(elem Type, rv reflect.Value) error {
	for i := 0; i < rv.Len(); i++ {
		if err := elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// OptionType accepts nil or a value of the inner type.
type OptionType struct {
	elemType Type
}

func (t *OptionType) Name() string {
	return fmt.Sprintf("Option<%s>", t.elemType.Name())
}

func (t *OptionType) Validate(value any) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		value = rv.Elem().Interface()
	}
	return t.elemType.Validate(value)
}

// MapType validates maps. JSON object keys arrive as strings and are
// accepted for any key type that parses from text.
type MapType struct {
	keyType   Type
	valueType Type
}

func (t *MapType) Name() string {
	return fmt.Sprintf("Map<%s,%s>", t.keyType.Name(), t.valueType.Name())
}

func (t *MapType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return fmt.Errorf("expected map, got %T", value)
	}
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		if s, ok := k.(string); ok {
			if _, isString := t.keyType.(*StringType); !isString {
				k = json.Number(s)
			}
		}
		if err := t.keyType.Validate(k); err != nil {
			return fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
		}
		if err := t.valueType.Validate(iter.Value().Interface()); err != nil {
			return fmt.Errorf("value at %v: %w", iter.Key().Interface(), err)
		}
	}
	return nil
}

// StructType is an ordered list of named fields. Binary encoding follows
// field order; validation reuses Schema over the field set.
type StructType struct {
	name   string
	fields []string
	schema Schema
}

func (t *StructType) Name() string { return t.name }

// Fields returns the field names in encoding order.
func (t *StructType) Fields() []string { return append([]string(nil), t.fields...) }

// Schema returns the field layout.
func (t *StructType) Schema() Schema { return t.schema }

func (t *StructType) Validate(value any) error {
	data, ok := value.(map[string]any)
	if !ok {
		return t.validateValue(value)
	}
	var errs []error
	if err := ValidateFields(t.schema, data, t.fields...); err != nil {
		errs = append(errs, ValidationErrors(err)...)
	}
	for key := range data {
		if _, known := t.schema[key]; !known {
			errs = append(errs, &ValidationError{Key: key, Reason: "unknown field", Value: data[key]})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// validateValue accepts a live Go struct of the described shape.
func (t *StructType) validateValue(value any) error {
	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("expected %s, got %T", t.name, value)
	}
	data := make(map[string]any, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Type().Field(i)
		if !f.IsExported() || skipField(f) {
			continue
		}
		data[fieldName(f)] = rv.Field(i).Interface()
	}
	return t.Validate(data)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// Uint creates an unsigned integer layout of the given width.
func Uint(bits int) Type { return &IntegerType{bits: bits} }

// Int creates a signed integer layout of the given width.
func Int(bits int) Type { return &IntegerType{bits: bits, signed: true} }

// U128 is the layout borsh uses for big.Int values.
func U128() Type { return &IntegerType{bits: 128} }

// Float creates a float layout (32 or 64 bits).
func Float(bits int) Type { return &FloatType{bits: bits} }

// String creates a string type validator.
func String() Type { return &StringType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Bytes creates a byte string layout.
func Bytes() Type { return &BytesType{} }

// Unit creates the empty layout.
func Unit() Type { return &UnitType{} }

// Slice creates a sequence layout for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Array creates a fixed-length layout.
func Array(elemType Type, length int) Type {
	return &ArrayType{elemType: elemType, length: length}
}

// Option creates an optional layout.
func Option(elemType Type) Type {
	return &OptionType{elemType: elemType}
}

// Map creates a map layout.
func Map(keyType, valueType Type) Type {
	return &MapType{keyType: keyType, valueType: valueType}
}

// Field is one named member of a struct layout.
type Field struct {
	Name string
	Type Type
}

// Struct creates a struct layout; fields keep their order.
func Struct(name string, fields ...Field) Type {
	st := &StructType{name: name, schema: make(Schema, len(fields))}
	for _, f := range fields {
		st.fields = append(st.fields, f.Name)
		st.schema[f.Name] = f.Type
	}
	return st
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a layout name back to a Type.
// Struct layouts carry their fields and cannot be parsed from a name.
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	switch {
	case strings.HasPrefix(typeStr, "Option<") && strings.HasSuffix(typeStr, ">"):
		inner, err := ParseType(typeStr[len("Option<") : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Option(inner), nil
	case strings.HasPrefix(typeStr, "Map<") && strings.HasSuffix(typeStr, ">"):
		body := typeStr[len("Map<") : len(typeStr)-1]
		k, v, ok := splitTop(body, ',')
		if !ok {
			return nil, fmt.Errorf("malformed map type: %s", typeStr)
		}
		kt, err := ParseType(k)
		if err != nil {
			return nil, err
		}
		vt, err := ParseType(v)
		if err != nil {
			return nil, err
		}
		return Map(kt, vt), nil
	case len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']':
		body := typeStr[1 : len(typeStr)-1]
		if elem, n, ok := splitTop(body, ';'); ok {
			length, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil || length < 0 {
				return nil, fmt.Errorf("malformed array length in %s", typeStr)
			}
			et, err := ParseType(elem)
			if err != nil {
				return nil, err
			}
			return Array(et, length), nil
		}
		et, err := ParseType(body)
		if err != nil {
			return nil, err
		}
		return Slice(et), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "bool":
		return Bool(), nil
	case "bytes":
		return Bytes(), nil
	case "()":
		return Unit(), nil
	case "f32":
		return Float(32), nil
	case "f64":
		return Float(64), nil
	case "u8", "u16", "u32", "u64", "u128", "u256", "i8", "i16", "i32", "i64":
		bits, _ := strconv.Atoi(typeStr[1:])
		if typeStr[0] == 'i' {
			return Int(bits), nil
		}
		return Uint(bits), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// splitTop splits s at the first sep that is not nested in brackets.
func splitTop(s string, sep byte) (string, string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[':
			depth++
		case '>', ']':
			depth--
		case sep:
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"owner": "string", "amount": "u128"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
