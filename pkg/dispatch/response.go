package dispatch

import (
	"encoding/base64"
	"fmt"

	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/envelope"
	"github.com/aretw0/covenant/pkg/host"
)

// Request is one external call.
type Request struct {
	Method string
	// Args is the encoded argument payload in the method's args codec.
	Args []byte
	// Env describes the caller; Env.Current selects the state.
	Env *host.Env
	// Kind, when set, is the only method kind the caller accepts.
	Kind *domain.MethodKind
}

// Response is the result of one call. Runtime failures are reported here,
// never as Go errors.
type Response struct {
	CallID   string          `json:"call_id"`
	Contract string          `json:"contract"`
	Method   string          `json:"method"`
	Account  string          `json:"account"`
	Terminal domain.Terminal `json:"terminal"`

	// Result is the encoded success value; empty for unit results and constructors.
	Result []byte                     `json:"result,omitempty"`
	Codec  domain.SerializationChoice `json:"codec"`

	// Diagnostic is the envelope of a handled failure or the abort message.
	Diagnostic string             `json:"diagnostic,omitempty"`
	Envelope   *envelope.Envelope `json:"envelope,omitempty"`

	// Promises are the transfers released by a persisted call.
	Promises []host.Transfer `json:"promises,omitempty"`
	// StateVersion is the version of the record written, zero when nothing was.
	StateVersion uint64 `json:"state_version,omitempty"`
}

// Decode unmarshals the success value into target.
func (r Response) Decode(target any) error {
	if r.Terminal != domain.Committed {
		return r.Err()
	}
	return codec.For(r.Codec).Unmarshal(r.Result, target)
}

// Err returns nil for a committed call and a *CallError otherwise.
func (r Response) Err() error {
	if !r.Terminal.Failed() {
		return nil
	}
	return &CallError{Method: r.Method, Terminal: r.Terminal, Diagnostic: r.Diagnostic, Envelope: r.Envelope}
}

// CallError reports a call that did not commit cleanly.
type CallError struct {
	Method     string
	Terminal   domain.Terminal
	Diagnostic string
	Envelope   *envelope.Envelope
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Terminal, e.Diagnostic)
}

// Handled reports whether the method itself returned the failure.
func (e *CallError) Handled() bool {
	return e.Envelope != nil
}

// Display renders the outcome on one line: the result for committed calls
// (base64 for binary results), the diagnostic otherwise.
func (r Response) Display() string {
	if r.Terminal.Failed() {
		return fmt.Sprintf("%s %s", r.Terminal, r.Diagnostic)
	}
	switch {
	case len(r.Result) == 0:
		return string(r.Terminal)
	case r.Codec == domain.CompactBinary:
		return fmt.Sprintf("%s borsh:%s", r.Terminal, base64.StdEncoding.EncodeToString(r.Result))
	default:
		return fmt.Sprintf("%s %s", r.Terminal, r.Result)
	}
}
