// Package host is the in-process reference execution environment: the call
// context a method sees (accounts, attached deposit, block height), the
// per-call ledger of queued transfers, and unconditional abort.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// DefaultStorageByteCost is 10^19 yocto per byte.
var DefaultStorageByteCost = uint256.MustFromDecimal("10000000000000000000")

// Env describes the call being executed.
type Env struct {
	// Current is the account that owns the contract state.
	Current string
	// Predecessor is the immediate caller.
	Predecessor string
	// Signer is the account that signed the originating transaction.
	Signer string

	AttachedDeposit *uint256.Int
	StorageByteCost *uint256.Int
	BlockHeight     uint64
	Timestamp       time.Time
}

// NewEnv returns an environment for a direct call by account on its own contract.
func NewEnv(account string) *Env {
	return &Env{
		Current:         account,
		Predecessor:     account,
		Signer:          account,
		AttachedDeposit: new(uint256.Int),
		StorageByteCost: DefaultStorageByteCost.Clone(),
		Timestamp:       time.Now().UTC(),
	}
}

// Deposit returns a copy of the attached deposit (zero when unset).
func (e *Env) Deposit() *uint256.Int {
	if e.AttachedDeposit == nil {
		return new(uint256.Int)
	}
	return e.AttachedDeposit.Clone()
}

// ByteCost returns a copy of the storage price per byte.
func (e *Env) ByteCost() *uint256.Int {
	if e.StorageByteCost == nil {
		return DefaultStorageByteCost.Clone()
	}
	return e.StorageByteCost.Clone()
}

// SelfCall reports whether the contract is calling itself.
func (e *Env) SelfCall() bool {
	return e.Predecessor == e.Current
}

// Validate checks the fields a call cannot run without.
func (e *Env) Validate() error {
	if e.Current == "" {
		return fmt.Errorf("env: current account is required")
	}
	if e.Predecessor == "" {
		return fmt.Errorf("env: predecessor account is required")
	}
	return nil
}

type envKey struct{}

// WithEnv attaches env to ctx.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// FromContext returns the environment of the running call, or an empty
// anonymous one.
func FromContext(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok && env != nil {
		return env
	}
	return NewEnv("")
}
