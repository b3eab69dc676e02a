package covenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aretw0/covenant/internal/logging"
	"github.com/aretw0/covenant/pkg/abi"
	"github.com/aretw0/covenant/pkg/adapters/memory"
	"github.com/aretw0/covenant/pkg/bind"
	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/dispatch"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/host"
	"github.com/aretw0/covenant/pkg/persistence/middleware"
	"github.com/aretw0/covenant/pkg/ports"
	"github.com/aretw0/covenant/pkg/session"
	"github.com/aretw0/covenant/pkg/shape"
	"github.com/holiman/uint256"
)

// Result is the explicit success-or-failure return of a fallible method.
type Result[T any, E error] = shape.Result[T, E]

// Ok builds a successful Result.
func Ok[T any, E error](v T) Result[T, E] { return shape.Ok[T, E](v) }

// Err builds a failed Result.
func Err[T any, E error](e E) Result[T, E] { return shape.Err[T](e) }

// Abort ends the running method unconditionally. Nothing it did is kept.
func Abort(msg string) { host.Abort(msg) }

// PersistOnError is embedded in error types whose failures keep state.
type PersistOnError = domain.PersistOnError

// Marker annotates a method. State types attach markers by implementing
// Markers() map[string][]Marker, keyed by Go or exposed method name.
type Marker = domain.Marker

const (
	InitIgnoreState Marker = domain.MarkerInitIgnoreState
	Payable         Marker = domain.MarkerPayable
	NonPayable      Marker = domain.MarkerNonPayable
	Private         Marker = domain.MarkerPrivate
	View            Marker = domain.MarkerView
	HandleResult    Marker = domain.MarkerHandleResult
	SerializeJSON   Marker = domain.MarkerSerializerJSON
	SerializeBorsh  Marker = domain.MarkerSerializerBorsh
	ArgsJSON        Marker = domain.MarkerArgsJSON
	ArgsBorsh       Marker = domain.MarkerArgsBorsh
	Skip            Marker = domain.MarkerSkip
)

// Serialization choices for StoredAs.
const (
	StructuredText = domain.StructuredText
	CompactBinary  = domain.CompactBinary
)

// Definition is a contract whose methods have been classified and bound.
type Definition struct {
	contract *bind.Contract
	version  string
}

// DefineOption configures Define.
type DefineOption = bind.Option

// Constructor registers a constructor.
func Constructor(name string, fn any, markers ...domain.Marker) DefineOption {
	return bind.Init(name, fn, markers...)
}

// Named overrides the contract name (the lower-cased state type name by default).
func Named(name string) DefineOption { return bind.WithName(name) }

// StoredAs selects how state is persisted (CompactBinary by default).
func StoredAs(choice domain.SerializationChoice) DefineOption {
	return bind.WithStateCodec(choice)
}

// Define binds the methods of S. Every malformed method is reported and no
// entry point is produced.
func Define[S any](opts ...DefineOption) (Definition, error) {
	c, err := bind.New[S](opts...)
	if err != nil {
		return Definition{}, err
	}
	return Definition{contract: c}, nil
}

// MustDefine is Define for package-level contracts.
func MustDefine[S any](opts ...DefineOption) Definition {
	def, err := Define[S](opts...)
	if err != nil {
		panic(err)
	}
	return def
}

// Versioned returns a copy of the definition with an ABI version.
func (d Definition) Versioned(version string) Definition {
	d.version = version
	return d
}

// Contract exposes the bound contract.
func (d Definition) Contract() *bind.Contract { return d.contract }

// Runtime executes one contract against a state store.
type Runtime struct {
	def         Definition
	store       ports.StateStore
	locker      ports.DistributedLocker
	middlewares []middleware.Middleware
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	abi        *abi.Document
}

// Option defines a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStore sets the state store (in-memory by default).
func WithStore(store ports.StateStore) Option {
	return func(r *Runtime) {
		r.store = store
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runtime) {
		r.hooks = hooks
	}
}

// WithLocker enables distributed locking of accounts.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Runtime) {
		r.locker = locker
	}
}

// WithStoreMiddleware wraps the store; the first middleware is the outermost.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Runtime) {
		r.middlewares = append(r.middlewares, mws...)
	}
}

// New initializes a Runtime for a defined contract.
func New(def Definition, opts ...Option) (*Runtime, error) {
	if def.contract == nil {
		return nil, errors.New("covenant: empty definition")
	}
	r := &Runtime{def: def}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = memory.NewStore()
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	r.logger = r.logger.With("contract", def.contract.Name())

	doc, err := abi.Build(def.contract, def.version)
	if err != nil {
		return nil, err
	}
	r.abi = doc

	store := middleware.Chain(r.store, r.middlewares...)
	sessOpts := []session.Option{session.WithLogger(r.logger)}
	if r.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(r.locker))
	}
	r.sessions = session.NewManager(store, sessOpts...)
	r.dispatcher = dispatch.New(def.contract, r.sessions,
		dispatch.WithLogger(r.logger),
		dispatch.WithLifecycleHooks(r.hooks),
	)
	return r, nil
}

// CallOption adjusts the environment of one call.
type CallOption func(*host.Env)

// WithPredecessor sets the calling account (the state owner by default).
func WithPredecessor(account string) CallOption {
	return func(e *host.Env) {
		e.Predecessor = account
		e.Signer = account
	}
}

// WithDeposit attaches tokens to the call.
func WithDeposit(amount *uint256.Int) CallOption {
	return func(e *host.Env) {
		e.AttachedDeposit = amount.Clone()
	}
}

// WithBlockHeight sets the block height seen by the method.
func WithBlockHeight(h uint64) CallOption {
	return func(e *host.Env) {
		e.BlockHeight = h
	}
}

// Invoke dispatches a raw request.
func (r *Runtime) Invoke(ctx context.Context, req dispatch.Request) dispatch.Response {
	return r.dispatcher.Invoke(ctx, req)
}

// Call runs any method on account's state. args are Go values encoded with
// the method's args codec; a single []byte or json.RawMessage is sent as is.
func (r *Runtime) Call(ctx context.Context, account, method string, args []any, opts ...CallOption) dispatch.Response {
	return r.invoke(ctx, nil, account, method, args, opts)
}

// View runs a view method. Other kinds abort.
func (r *Runtime) View(ctx context.Context, account, method string, args ...any) dispatch.Response {
	kind := domain.View
	return r.invoke(ctx, &kind, account, method, args, nil)
}

// Init runs a constructor. Other kinds abort.
func (r *Runtime) Init(ctx context.Context, account, method string, args []any, opts ...CallOption) dispatch.Response {
	kind := domain.Init
	return r.invoke(ctx, &kind, account, method, args, opts)
}

func (r *Runtime) invoke(ctx context.Context, kind *domain.MethodKind, account, method string, args []any, opts []CallOption) dispatch.Response {
	env := host.NewEnv(account)
	for _, opt := range opts {
		opt(env)
	}
	payload, err := r.EncodeArgs(method, args...)
	if err != nil {
		return r.rejected(account, method, err)
	}
	return r.dispatcher.Invoke(ctx, dispatch.Request{Method: method, Args: payload, Env: env, Kind: kind})
}

// EncodeArgs encodes Go values as the payload of method.
func (r *Runtime) EncodeArgs(method string, args ...any) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 {
		switch raw := args[0].(type) {
		case []byte:
			return raw, nil
		case json.RawMessage:
			return raw, nil
		}
	}
	entry, ok := r.def.contract.Entry(method)
	if !ok {
		// the dispatcher reports unknown methods
		return nil, nil
	}
	choice := entry.Record.ArgsSerialization
	if len(args) == 1 {
		return codec.For(choice).Marshal(args[0])
	}
	asJSON, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	if choice == domain.StructuredText {
		return asJSON, nil
	}
	return entry.TranscodeArgs(asJSON)
}

// ABI returns the contract's ABI document.
func (r *Runtime) ABI() *abi.Document { return r.abi }

// Contract returns the bound contract.
func (r *Runtime) Contract() *bind.Contract { return r.def.contract }

// Sessions returns the session manager over the configured store.
func (r *Runtime) Sessions() *session.Manager { return r.sessions }

// State returns the stored record of account.
func (r *Runtime) State(ctx context.Context, account string) (*domain.StateRecord, error) {
	return r.sessions.Load(ctx, account)
}

// StateValue decodes the stored state of account into a fresh S (as any).
func (r *Runtime) StateValue(ctx context.Context, account string) (any, error) {
	rec, err := r.State(ctx, account)
	if err != nil {
		return nil, err
	}
	v, err := r.def.contract.DecodeState(rec.Data)
	if err != nil {
		return nil, err
	}
	return reflect.Indirect(v).Interface(), nil
}

// CallJSON runs a method with a structured-text payload, transcoding it for
// methods whose arguments travel in the binary codec.
func (r *Runtime) CallJSON(ctx context.Context, account, method string, payload []byte, opts ...CallOption) dispatch.Response {
	return r.invokeJSON(ctx, nil, account, method, payload, opts)
}

// ViewJSON is CallJSON restricted to view methods.
func (r *Runtime) ViewJSON(ctx context.Context, account, method string, payload []byte) dispatch.Response {
	kind := domain.View
	return r.invokeJSON(ctx, &kind, account, method, payload, nil)
}

func (r *Runtime) invokeJSON(ctx context.Context, kind *domain.MethodKind, account, method string, payload []byte, opts []CallOption) dispatch.Response {
	if entry, ok := r.def.contract.Entry(method); ok && entry.Record.ArgsSerialization == domain.CompactBinary && len(payload) > 0 {
		bin, err := entry.TranscodeArgs(payload)
		if err != nil {
			return r.rejected(account, method, err)
		}
		payload = bin
	}
	return r.invoke(ctx, kind, account, method, []any{payload}, opts)
}

// rejected reports arguments that could not be encoded. Such calls never
// reach the dispatcher: they get no call ID and fire no hooks.
func (r *Runtime) rejected(account, method string, err error) dispatch.Response {
	return dispatch.Response{
		Contract:   r.def.contract.Name(),
		Method:     method,
		Account:    account,
		Terminal:   domain.Aborted,
		Diagnostic: fmt.Sprintf("failed to encode arguments: %v", err),
	}
}
