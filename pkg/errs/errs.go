// Package errs holds the standard contract errors shared by every contract,
// plus BaseError, the catch-all that carries another error's envelope.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/envelope"
)

// InvalidArgument reports malformed call input.
type InvalidArgument struct {
	Message string `json:"message"`
}

func (e *InvalidArgument) Error() string { return e.Message }

// NewInvalidArgument builds an InvalidArgument from a formatted message.
func NewInvalidArgument(format string, args ...any) *InvalidArgument {
	return &InvalidArgument{Message: fmt.Sprintf(format, args...)}
}

// ContractNotInitialized is raised when a non-constructor runs without state.
type ContractNotInitialized struct {
	Message string `json:"message"`
}

func (e *ContractNotInitialized) Error() string { return e.Message }

// NewContractNotInitialized returns the error with its standard message.
func NewContractNotInitialized() *ContractNotInitialized {
	return &ContractNotInitialized{Message: "The contract is not initialized"}
}

// ContractAlreadyInitialized is raised when a constructor runs over existing state.
type ContractAlreadyInitialized struct {
	Message string `json:"message"`
}

func (e *ContractAlreadyInitialized) Error() string { return e.Message }

// NewContractAlreadyInitialized returns the error with its standard message.
func NewContractAlreadyInitialized() *ContractAlreadyInitialized {
	return &ContractAlreadyInitialized{Message: "The contract has already been initialized"}
}

// RequireFailed is the default error of Require.
type RequireFailed struct {
	Message string `json:"message"`
}

func (e *RequireFailed) Error() string { return e.Message }

// NewRequireFailed returns the error with its standard message.
func NewRequireFailed() *RequireFailed {
	return &RequireFailed{Message: "require assertion failed"}
}

// PromiseFailed reports a failed cross-contract promise. PromiseIndex is nil
// when the failing promise is unknown.
type PromiseFailed struct {
	Message      string  `json:"message"`
	PromiseIndex *uint64 `json:"promise_index"`
}

func (e *PromiseFailed) Error() string {
	if e.PromiseIndex == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (promise %d)", e.Message, *e.PromiseIndex)
}

// NewPromiseFailed returns the error for an optional promise index.
func NewPromiseFailed(index *uint64) *PromiseFailed {
	return &PromiseFailed{Message: "Promise failed", PromiseIndex: index}
}

// InsufficientBalance reports a deposit that does not cover a cost.
type InsufficientBalance struct {
	Message string `json:"message,omitempty"`
}

func (e *InsufficientBalance) Error() string {
	if e.Message == "" {
		return "insufficient balance"
	}
	return e.Message
}

// DepositNotAccepted is raised when a non-payable method receives a deposit.
type DepositNotAccepted struct {
	Method string `json:"method"`
}

func (e *DepositNotAccepted) Error() string {
	return fmt.Sprintf("Method %s doesn't accept deposit", e.Method)
}

// PrivateMethod is raised when a private method is called by another account.
type PrivateMethod struct {
	Method string `json:"method"`
}

func (e *PrivateMethod) Error() string {
	return fmt.Sprintf("Method %s is private", e.Method)
}

// BaseError carries the envelope of any other error. It encodes as that
// envelope, so wrapping a BaseError nests the original envelope.
type BaseError struct {
	Envelope envelope.Envelope
}

func (e BaseError) Error() string {
	raw, err := e.Envelope.Marshal()
	if err != nil {
		return e.Envelope.ErrorType
	}
	return string(raw)
}

func (e BaseError) MarshalJSON() ([]byte, error) {
	return e.Envelope.Marshal()
}

func (e *BaseError) UnmarshalJSON(data []byte) error {
	env, err := envelope.Parse(data)
	if err != nil {
		return err
	}
	e.Envelope = env
	return nil
}

// Is matches another BaseError carrying the same error type.
func (e BaseError) Is(target error) bool {
	var other BaseError
	if !errors.As(target, &other) {
		return false
	}
	return other.Envelope.ErrorType == e.Envelope.ErrorType
}

// ToBase erases the type of err behind its structured-text envelope.
// A BaseError is returned unchanged.
func ToBase(err error) BaseError {
	var base BaseError
	if errors.As(err, &base) {
		return base
	}
	env, wErr := envelope.Wrap(err, domain.StructuredText)
	if wErr != nil {
		env = envelope.MustWrap(NewInvalidArgument("%v", err), domain.StructuredText)
	}
	return BaseError{Envelope: env}
}

// Require returns nil when cond holds and err otherwise. A nil err becomes
// RequireFailed.
func Require(cond bool, err error) error {
	if cond {
		return nil
	}
	if err == nil {
		return NewRequireFailed()
	}
	return err
}

// Is reports whether err is, or carries the envelope of, an error of the
// same type as target.
func Is(err error, target error) bool {
	if errors.Is(err, target) {
		return true
	}
	var base BaseError
	if errors.As(err, &base) {
		return base.Envelope.ErrorType == envelope.ErrorType(target)
	}
	return false
}

var _ json.Marshaler = BaseError{}
