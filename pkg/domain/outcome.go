package domain

import "fmt"

// Outcome is the uniform result of normalizing a method's return value.
type Outcome struct {
	Value  any
	Err    error
	Failed bool
}

// Success wraps a successful payload (nil for unit results).
func Success(v any) Outcome {
	return Outcome{Value: v}
}

// Failure wraps a handled error.
func Failure(err error) Outcome {
	return Outcome{Err: err, Failed: true}
}

func (o Outcome) String() string {
	if o.Failed {
		return fmt.Sprintf("Failure(%v)", o.Err)
	}
	return fmt.Sprintf("Success(%v)", o.Value)
}

// Terminal is the final state of a dispatched call.
type Terminal string

const (
	Committed          Terminal = "committed"
	RolledBack         Terminal = "rolled_back"
	CommittedWithError Terminal = "committed_with_error"
	Aborted            Terminal = "aborted"
)

// Failed reports whether the caller sees a failure.
func (t Terminal) Failed() bool {
	return t != Committed
}

// Persisted reports whether state mutations survive the terminal.
func (t Terminal) Persisted() bool {
	return t == Committed || t == CommittedWithError
}
