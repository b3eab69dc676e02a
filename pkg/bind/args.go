package bind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/schema"
)

// argBinder decodes a call payload into method arguments.
//
// A single parameter is decoded from the whole payload. Several parameters
// travel as a JSON array or a binary tuple, in declaration order. An empty
// payload yields zero values.
type argBinder struct {
	types  []reflect.Type
	choice domain.SerializationChoice
	tuple  reflect.Type // binary tuple of types, when len(types) > 1
	layout schema.Type  // binary layout of the payload
}

func newArgBinder(types []reflect.Type, choice domain.SerializationChoice) (*argBinder, error) {
	b := &argBinder{types: types, choice: choice}
	if len(types) > 1 {
		fields := make([]reflect.StructField, len(types))
		for i, t := range types {
			fields[i] = reflect.StructField{Name: fmt.Sprintf("A%d", i), Type: t}
		}
		b.tuple = reflect.StructOf(fields)
	}
	if choice == domain.CompactBinary {
		layout, err := b.binaryLayout()
		if err != nil {
			return nil, err
		}
		b.layout = layout
	}
	return b, nil
}

func (b *argBinder) binaryLayout() (schema.Type, error) {
	switch len(b.types) {
	case 0:
		return schema.Unit(), nil
	case 1:
		return schema.Layout(b.types[0])
	default:
		// JSON input for a tuple is an array; validate positionally
		elems := make([]schema.Type, len(b.types))
		for i, t := range b.types {
			l, err := schema.Layout(reflect.StructOf([]reflect.StructField{{Name: "A", Type: t}}))
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			elems[i] = l.(*schema.StructType).Schema()["A"]
		}
		return schema.Custom(tupleName(elems), func(v any) error {
			items, ok := v.([]any)
			if !ok || len(items) != len(elems) {
				return fmt.Errorf("expected an array of %d arguments", len(elems))
			}
			for i, item := range items {
				if err := elems[i].Validate(item); err != nil {
					return fmt.Errorf("argument %d: %w", i, err)
				}
			}
			return nil
		}), nil
	}
}

func tupleName(elems []schema.Type) string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for i, e := range elems {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(e.Name())
	}
	buf.WriteByte(')')
	return buf.String()
}

// decode returns one value per parameter.
func (b *argBinder) decode(payload []byte) ([]reflect.Value, error) {
	out := make([]reflect.Value, len(b.types))
	for i, t := range b.types {
		out[i] = reflect.New(t).Elem()
	}
	if len(b.types) == 0 || len(bytes.TrimSpace(payload)) == 0 {
		return out, nil
	}

	c := codec.For(b.choice)
	if len(b.types) == 1 {
		ptr := reflect.New(b.types[0])
		if err := c.Unmarshal(payload, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		out[0] = ptr.Elem()
		return out, nil
	}

	if b.choice == domain.CompactBinary {
		ptr := reflect.New(b.tuple)
		if err := c.Unmarshal(payload, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		for i := range out {
			out[i] = ptr.Elem().Field(i)
		}
		return out, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode arguments: expected an array of %d values: %w", len(b.types), err)
	}
	if len(items) != len(b.types) {
		return nil, fmt.Errorf("decode arguments: expected %d values, got %d", len(b.types), len(items))
	}
	for i, raw := range items {
		ptr := reflect.New(b.types[i])
		if err := c.Unmarshal(raw, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("decode argument %d: %w", i, err)
		}
		out[i] = ptr.Elem()
	}
	return out, nil
}

// transcode turns a JSON payload into the payload the method expects. JSON
// methods get it unchanged. Binary methods get it validated against the
// argument layout and re-encoded.
func (b *argBinder) transcode(payload []byte) ([]byte, error) {
	if b.choice == domain.StructuredText || len(b.types) == 0 || len(bytes.TrimSpace(payload)) == 0 {
		return payload, nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("transcode arguments: %w", err)
	}
	if err := b.layout.Validate(generic); err != nil {
		return nil, fmt.Errorf("transcode arguments: %w", err)
	}

	jsonBinder := &argBinder{types: b.types, choice: domain.StructuredText}
	values, err := jsonBinder.decode(payload)
	if err != nil {
		return nil, err
	}

	var v any
	if len(values) == 1 {
		v = values[0].Interface()
	} else {
		tuple := reflect.New(b.tuple).Elem()
		for i, val := range values {
			tuple.Field(i).Set(val)
		}
		v = tuple.Interface()
	}
	out, err := codec.Borsh().Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transcode arguments: %w", err)
	}
	return out, nil
}
