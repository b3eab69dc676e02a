package domain

// StatePersister is implemented by error types whose failures still commit state.
type StatePersister interface {
	PersistStateOnError()
}

// PersistOnError can be embedded in an error type to opt into persist-on-error.
//
//	type LimitReached struct {
//		domain.PersistOnError
//		Limit uint32 `json:"limit"`
//	}
type PersistOnError struct{}

// PersistStateOnError marks the embedding type.
func (PersistOnError) PersistStateOnError() {}

// Persists reports whether the dynamic type of err carries the marker.
// Wrapping errors do not inherit the property of what they wrap.
func Persists(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(StatePersister)
	return ok
}
