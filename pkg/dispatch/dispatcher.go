package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/aretw0/covenant/internal/logging"
	"github.com/aretw0/covenant/pkg/bind"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/envelope"
	"github.com/aretw0/covenant/pkg/errs"
	"github.com/aretw0/covenant/pkg/host"
	"github.com/aretw0/covenant/pkg/session"
	"github.com/google/uuid"
)

// Dispatcher invokes the entry points of one bound contract.
type Dispatcher struct {
	contract *bind.Contract
	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newID    func() string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for terminal records.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithIDGenerator replaces the call ID source (random UUIDs by default).
func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// New creates a Dispatcher for contract over the sessions' store.
func New(contract *bind.Contract, sessions *session.Manager, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		contract: contract,
		sessions: sessions,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Contract returns the bound contract.
func (d *Dispatcher) Contract() *bind.Contract { return d.contract }

// Sessions returns the session manager guarding account state.
func (d *Dispatcher) Sessions() *session.Manager { return d.sessions }

// Invoke runs one call to its terminal. It never retries.
func (d *Dispatcher) Invoke(ctx context.Context, req Request) Response {
	start := time.Now()
	env := req.Env
	if env == nil {
		env = host.NewEnv("")
	}

	resp := Response{
		CallID:   d.newID(),
		Contract: d.contract.Name(),
		Method:   req.Method,
		Account:  env.Current,
	}
	ev := &domain.CallEvent{
		CallID:    resp.CallID,
		Contract:  resp.Contract,
		Account:   resp.Account,
		Method:    resp.Method,
		Timestamp: start.UTC(),
	}

	entry, ok := d.contract.Entry(req.Method)
	if ok {
		ev.Kind = entry.Record.Kind
		resp.Codec = entry.Record.Serialization
	}
	d.emitInvoke(ctx, ev)

	switch {
	case !ok:
		resp = aborted(resp, fmt.Sprintf("%v: %s", domain.ErrUnknownMethod, req.Method))
	case req.Kind != nil && *req.Kind != entry.Record.Kind:
		resp = aborted(resp, fmt.Sprintf("method %s is a %s method, not %s", req.Method, entry.Record.Kind, *req.Kind))
	default:
		if err := env.Validate(); err != nil {
			resp = aborted(resp, err.Error())
			break
		}
		err := d.sessions.WithLock(ctx, env.Current, func(ctx context.Context) error {
			resp = d.execute(ctx, entry, env, req.Args, resp)
			return nil
		})
		if err != nil {
			resp = aborted(resp, err.Error())
		}
	}

	d.finish(ctx, ev, resp, time.Since(start))
	return resp
}

// execute runs with the account lock held.
func (d *Dispatcher) execute(ctx context.Context, entry *bind.Entry, env *host.Env, args []byte, resp Response) Response {
	rec := entry.Record
	store := d.sessions.Store()

	stored, err := store.Load(ctx, env.Current)
	exists := err == nil
	if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
		return aborted(resp, fmt.Sprintf("failed to load state: %v", err))
	}
	if exists && stored.Contract != "" && stored.Contract != d.contract.Name() {
		return aborted(resp, fmt.Sprintf("account %s holds state of contract %s", env.Current, stored.Contract))
	}

	if err := d.precondition(rec, env, exists); err != nil {
		return aborted(resp, envelope.MustWrap(err, domain.StructuredText).Diagnostic())
	}

	var state reflect.Value
	if rec.Kind != domain.Init {
		if stored.Codec != d.contract.StateCodec() {
			return aborted(resp, fmt.Sprintf("state was written as %s, contract reads %s", stored.Codec, d.contract.StateCodec()))
		}
		state, err = d.contract.DecodeState(stored.Data)
		if err != nil {
			return aborted(resp, err.Error())
		}
	}

	ledger := &host.Ledger{}
	callCtx := host.WithLedger(host.WithEnv(ctx, env), ledger)

	outcome, abort := run(callCtx, entry, state, args)
	if abort != nil {
		ledger.Discard()
		return aborted(resp, abort.Message)
	}

	if !outcome.Failed {
		result, err := entry.EncodeResult(outcome.Value)
		if err != nil {
			return aborted(resp, fmt.Sprintf("failed to serialize result: %v", err))
		}
		switch rec.Kind {
		case domain.Call:
			resp, err = d.persist(ctx, resp, stored, env.Current, state.Interface())
		case domain.Init:
			resp, err = d.persist(ctx, resp, stored, env.Current, outcome.Value)
		}
		if err != nil {
			return aborted(resp, err.Error())
		}
		resp.Terminal = domain.Committed
		resp.Result = result
		resp.Promises = ledger.Promises()
		return resp
	}

	wrapped, err := envelope.Wrap(outcome.Err, rec.Serialization)
	if err != nil {
		ledger.Discard()
		return aborted(resp, outcome.Err.Error())
	}
	resp.Envelope = &wrapped
	resp.Diagnostic = wrapped.Diagnostic()

	if !rec.Return.PersistsFor(outcome.Err) {
		ledger.Discard()
		resp.Terminal = domain.RolledBack
		return resp
	}
	if rec.Kind == domain.Call {
		if resp, err = d.persist(ctx, resp, stored, env.Current, state.Interface()); err != nil {
			return aborted(resp, err.Error())
		}
	}
	resp.Terminal = domain.CommittedWithError
	resp.Promises = ledger.Promises()
	return resp
}

// precondition returns the standard error that forbids the call, if any.
func (d *Dispatcher) precondition(rec domain.ClassificationRecord, env *host.Env, exists bool) error {
	switch {
	case rec.Kind == domain.Init && exists && !rec.IgnoresState:
		return errs.NewContractAlreadyInitialized()
	case rec.Kind != domain.Init && !exists:
		return errs.NewContractNotInitialized()
	case !rec.Payable && !env.Deposit().IsZero():
		return &errs.DepositNotAccepted{Method: rec.Name}
	case rec.Private && !env.SelfCall():
		return &errs.PrivateMethod{Method: rec.Name}
	}
	return nil
}

// run invokes the entry and converts panics and decode failures into aborts.
func run(ctx context.Context, entry *bind.Entry, state reflect.Value, args []byte) (outcome domain.Outcome, abort *host.AbortError) {
	defer func() {
		if r := recover(); r != nil {
			abort = host.Recovered(r)
		}
	}()
	out, err := entry.Invoke(ctx, state, args)
	if err != nil {
		return domain.Outcome{}, &host.AbortError{Message: fmt.Sprintf("failed to decode arguments: %v", err)}
	}
	return out, nil
}

func (d *Dispatcher) persist(ctx context.Context, resp Response, prev *domain.StateRecord, account string, state any) (Response, error) {
	data, err := d.contract.EncodeState(state)
	if err != nil {
		return resp, fmt.Errorf("failed to serialize state: %w", err)
	}
	var next *domain.StateRecord
	if prev == nil {
		next = domain.NewStateRecord(account, d.contract.Name(), d.contract.StateCodec(), data)
	} else {
		next = prev.Next(data)
		next.Contract = d.contract.Name()
		next.Codec = d.contract.StateCodec()
	}
	if err := d.sessions.Store().Save(ctx, account, next); err != nil {
		return resp, fmt.Errorf("failed to persist state: %w", err)
	}
	resp.StateVersion = next.Version
	return resp, nil
}

func aborted(resp Response, msg string) Response {
	resp.Terminal = domain.Aborted
	resp.Diagnostic = msg
	resp.Result = nil
	resp.Envelope = nil
	resp.Promises = nil
	resp.StateVersion = 0
	return resp
}

func (d *Dispatcher) emitInvoke(ctx context.Context, ev *domain.CallEvent) {
	if d.hooks.OnInvoke != nil {
		d.hooks.OnInvoke(ctx, ev)
	}
}

func (d *Dispatcher) finish(ctx context.Context, ev *domain.CallEvent, resp Response, elapsed time.Duration) {
	ev.Terminal = resp.Terminal
	ev.Diagnostic = resp.Diagnostic
	ev.Duration = elapsed

	attrs := []any{
		"call_id", resp.CallID,
		"account", resp.Account,
		"method", resp.Method,
		"terminal", resp.Terminal,
	}
	if resp.Terminal.Failed() {
		d.logger.Info("Call failed", append(attrs, "diagnostic", resp.Diagnostic)...)
	} else {
		d.logger.Debug("Call committed", append(attrs, "duration", elapsed)...)
	}

	if d.hooks.OnTerminal != nil {
		d.hooks.OnTerminal(ctx, ev)
	}
}
