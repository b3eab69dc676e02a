// Package envelope wraps contract errors in the canonical
// {"error_type": ..., "value": ...} shape surfaced to callers.
package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
)

// ErrWriteOnly is returned when decoding an envelope produced by the binary codec.
var ErrWriteOnly = errors.New("binary envelopes are write-only")

// Envelope is the wire form of a handled failure.
type Envelope struct {
	ErrorType string          `json:"error_type"`
	Value     json.RawMessage `json:"value"`

	choice domain.SerializationChoice
}

// TypeName is the stable identifier of an error type: its package path and
// name. Pointers are elided so T and *T agree. It never depends on a value.
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ErrorType is TypeName of the dynamic type of err.
func ErrorType(err error) string {
	return TypeName(reflect.TypeOf(err))
}

// Wrap packages err for the given codec.
//
// With the structured-text codec the value is the error's JSON encoding, or
// its message when the error has no exported fields. With the binary codec
// the value is the base64 of the error's Borsh encoding (or of its message
// when the type has no binary layout).
func Wrap(err error, choice domain.SerializationChoice) (Envelope, error) {
	if rv := reflect.ValueOf(err); err == nil || rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Envelope{}, fmt.Errorf("envelope: nil error")
	}
	env := Envelope{ErrorType: ErrorType(err), choice: choice}

	switch choice {
	case domain.StructuredText:
		raw, mErr := json.Marshal(err)
		if mErr != nil || isEmptyObject(raw) {
			raw, mErr = json.Marshal(err.Error())
			if mErr != nil {
				return Envelope{}, fmt.Errorf("envelope: %w", mErr)
			}
		}
		value, cErr := codec.Canonical(raw)
		if cErr != nil {
			return Envelope{}, fmt.Errorf("envelope: %w", cErr)
		}
		env.Value = value
	case domain.CompactBinary:
		bin, mErr := codec.Borsh().Marshal(reflect.Indirect(reflect.ValueOf(err)).Interface())
		if mErr != nil {
			bin, mErr = codec.Borsh().Marshal(err.Error())
			if mErr != nil {
				return Envelope{}, fmt.Errorf("envelope: %w", mErr)
			}
		}
		raw, _ := json.Marshal(base64.StdEncoding.EncodeToString(bin))
		env.Value = raw
	default:
		return Envelope{}, fmt.Errorf("envelope: unknown serialization %v", choice)
	}
	return env, nil
}

// MustWrap is Wrap for errors known to encode, such as the standard
// contract errors. It panics on failure.
func MustWrap(err error, choice domain.SerializationChoice) Envelope {
	env, wErr := Wrap(err, choice)
	if wErr != nil {
		panic(wErr)
	}
	return env
}

func isEmptyObject(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("{}"))
}

// Choice is the codec the value was encoded with.
func (e Envelope) Choice() domain.SerializationChoice {
	return e.choice
}

// Decode reads the value back into target. Only structured-text envelopes
// round-trip.
func (e Envelope) Decode(target any) error {
	if e.choice == domain.CompactBinary {
		return ErrWriteOnly
	}
	if err := json.Unmarshal(e.Value, target); err != nil {
		return fmt.Errorf("envelope %s: %w", e.ErrorType, err)
	}
	return nil
}

// Marshal renders the envelope canonically.
func (e Envelope) Marshal() ([]byte, error) {
	return codec.JSON().Marshal(e)
}

// Diagnostic is the single top-level failure string: {"error":<envelope>}.
func (e Envelope) Diagnostic() string {
	raw, err := codec.JSON().Marshal(diagnostic{Error: e})
	if err != nil {
		// Value is always valid JSON when built by Wrap or Parse.
		return fmt.Sprintf(`{"error":{"error_type":%q,"value":null}}`, e.ErrorType)
	}
	return string(raw)
}

func (e Envelope) String() string {
	return e.Diagnostic()
}

type diagnostic struct {
	Error Envelope `json:"error"`
}

// Parse reads an envelope written by Marshal.
func Parse(raw []byte) (Envelope, error) {
	if err := Validate(raw); err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("envelope: %w", err)
	}
	return env, nil
}

// ParseDiagnostic reads the envelope back out of a failure string.
func ParseDiagnostic(diag string) (Envelope, error) {
	if err := ValidateDiagnostic([]byte(diag)); err != nil {
		return Envelope{}, err
	}
	var d diagnostic
	if err := json.Unmarshal([]byte(diag), &d); err != nil {
		return Envelope{}, fmt.Errorf("envelope: %w", err)
	}
	return d.Error, nil
}
