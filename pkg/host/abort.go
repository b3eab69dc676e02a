package host

import "fmt"

// AbortError is the panic value of an unconditional abort.
type AbortError struct {
	Message string
}

func (e *AbortError) Error() string { return e.Message }

// Abort terminates the running method immediately. The call ends Aborted:
// state and queued transfers are discarded and msg is surfaced as is.
func Abort(msg string) {
	panic(&AbortError{Message: msg})
}

// Abortf is Abort with a formatted message.
func Abortf(format string, args ...any) {
	Abort(fmt.Sprintf(format, args...))
}

// RequireOrAbort aborts with msg unless cond holds.
func RequireOrAbort(cond bool, msg string) {
	if !cond {
		Abort(msg)
	}
}

// Recovered converts a recovered panic value into an abort. It returns nil
// for a nil value.
func Recovered(r any) *AbortError {
	switch v := r.(type) {
	case nil:
		return nil
	case *AbortError:
		return v
	case error:
		return &AbortError{Message: v.Error()}
	default:
		return &AbortError{Message: fmt.Sprint(v)}
	}
}
