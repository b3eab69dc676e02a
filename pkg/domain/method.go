package domain

import (
	"fmt"
	"strings"
)

// MethodKind is the call category of an entry point.
type MethodKind int

const (
	// Call mutates state and may be payable or private.
	Call MethodKind = iota
	// View never mutates state.
	View
	// Init constructs the initial state.
	Init
)

func (k MethodKind) String() string {
	switch k {
	case Call:
		return "call"
	case View:
		return "view"
	case Init:
		return "init"
	default:
		return fmt.Sprintf("MethodKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name so records read well in JSON and YAML.
func (k MethodKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ReceiverForm is how a method binds to the contract state.
type ReceiverForm int

const (
	// NoReceiver is a free function (only valid for constructors).
	NoReceiver ReceiverForm = iota
	// ValueReceiver gets a copy of the state.
	ValueReceiver
	// PointerReceiver may mutate the state.
	PointerReceiver
)

func (r ReceiverForm) String() string {
	switch r {
	case NoReceiver:
		return "none"
	case ValueReceiver:
		return "value"
	case PointerReceiver:
		return "pointer"
	default:
		return fmt.Sprintf("ReceiverForm(%d)", int(r))
	}
}

// MarshalText renders the receiver form by name.
func (r ReceiverForm) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (r *ReceiverForm) UnmarshalText(b []byte) error {
	f, err := ParseReceiverForm(string(b))
	if err != nil {
		return err
	}
	*r = f
	return nil
}

// ParseReceiverForm reads the textual form used by method descriptor documents.
func ParseReceiverForm(s string) (ReceiverForm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoReceiver, nil
	case "value", "&self", "self":
		return ValueReceiver, nil
	case "pointer", "&mut self", "mut":
		return PointerReceiver, nil
	default:
		return NoReceiver, fmt.Errorf("unknown receiver form %q", s)
	}
}

// SerializationChoice selects the wire codec of a method.
type SerializationChoice int

const (
	// StructuredText is the human-readable codec (JSON).
	StructuredText SerializationChoice = iota
	// CompactBinary is the dense binary codec (Borsh).
	CompactBinary
)

func (s SerializationChoice) String() string {
	switch s {
	case StructuredText:
		return "json"
	case CompactBinary:
		return "borsh"
	default:
		return fmt.Sprintf("SerializationChoice(%d)", int(s))
	}
}

// MarshalText renders the choice by codec name.
func (s SerializationChoice) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the codec names produced by MarshalText.
func (s *SerializationChoice) UnmarshalText(b []byte) error {
	c, err := ParseSerialization(string(b))
	if err != nil {
		return err
	}
	*s = c
	return nil
}

// ParseSerialization maps a codec name to its choice.
func ParseSerialization(name string) (SerializationChoice, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return StructuredText, nil
	case "borsh":
		return CompactBinary, nil
	default:
		return StructuredText, fmt.Errorf("unknown serializer %q", name)
	}
}
