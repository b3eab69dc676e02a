package domain

import (
	"context"
	"time"
)

// CallEvent describes one dispatched call for observability hooks.
type CallEvent struct {
	CallID     string        `json:"call_id"`
	Contract   string        `json:"contract"`
	Account    string        `json:"account"`
	Method     string        `json:"method"`
	Kind       MethodKind    `json:"kind"`
	Terminal   Terminal      `json:"terminal,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// LifecycleHooks defines callbacks for dispatcher observability.
type LifecycleHooks struct {
	OnInvoke   func(context.Context, *CallEvent)
	OnTerminal func(context.Context, *CallEvent)
}
