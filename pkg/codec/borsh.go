package codec

import (
	"fmt"
	"reflect"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/near/borsh-go"
)

const borshContentType = "application/x-borsh"

type borshCodec struct{}

// Borsh returns the compact binary codec.
//
// Pointers encode as Option. A nil pointer decodes as a pointer to the zero
// value, so Option-typed fields only round-trip when set.
func Borsh() Codec { return borshCodec{} }

func (borshCodec) Choice() domain.SerializationChoice { return domain.CompactBinary }

func (borshCodec) ContentType() string { return borshContentType }

func (borshCodec) Marshal(v any) (out []byte, err error) {
	if v == nil {
		return []byte{}, nil
	}
	defer recoverInto(&err, "encode", v)
	return borsh.Serialize(v)
}

func (borshCodec) Unmarshal(data []byte, v any) (err error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("borsh: decode target must be a non-nil pointer, got %T", v)
	}
	if len(data) == 0 {
		return nil
	}
	defer recoverInto(&err, "decode", v)
	return borsh.Deserialize(v, data)
}

// recoverInto turns a panic from the reflection-based encoder into an error.
func recoverInto(err *error, op string, v any) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("borsh: cannot %s %T: %v", op, v, r)
	}
}
