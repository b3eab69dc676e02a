package domain

import "fmt"

// ReturnKind is the return-handling policy family of a method.
type ReturnKind int

const (
	// Implicit methods declare no result; the outcome is always success.
	Implicit ReturnKind = iota
	// Plain methods return a value that can never signal failure.
	Plain
	// ExplicitFallible methods return a fallible shape and are marked handle_result.
	ExplicitFallible
)

func (k ReturnKind) String() string {
	switch k {
	case Implicit:
		return "implicit"
	case Plain:
		return "plain"
	case ExplicitFallible:
		return "explicit_fallible"
	default:
		return fmt.Sprintf("ReturnKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k ReturnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ReturnPolicy says how a method's raw results become an Outcome.
type ReturnPolicy struct {
	Kind    ReturnKind `json:"kind"`
	Success TypeRef    `json:"success"`
	Error   TypeRef    `json:"error,omitempty"`
	// PersistOnError is the static persist-on-error property of the error type.
	PersistOnError bool `json:"persist_on_error,omitempty"`
}

// PersistsFor decides whether a failure with err keeps the state mutations.
// For a concrete error type the static property applies. When the declared
// error type is an interface, the property of the failure's dynamic type is used.
func (p ReturnPolicy) PersistsFor(err error) bool {
	if p.Kind != ExplicitFallible {
		return false
	}
	if p.Error.Interface {
		return Persists(err)
	}
	return p.PersistOnError
}

// ClassificationRecord is the immutable verdict of the classifier for one method.
type ClassificationRecord struct {
	Name              string              `json:"name"`
	Kind              MethodKind          `json:"kind"`
	Payable           bool                `json:"payable"`
	Private           bool                `json:"private"`
	IgnoresState      bool                `json:"ignores_state,omitempty"`
	Serialization     SerializationChoice `json:"serialization"`
	ArgsSerialization SerializationChoice `json:"args_serialization"`
	Return            ReturnPolicy        `json:"return"`
}

// Mutates reports whether a successful call writes state back.
func (r ClassificationRecord) Mutates() bool {
	return r.Kind != View
}
