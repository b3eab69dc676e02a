// Package bind turns the methods of a state type into contract entry points.
//
// Binding happens once, when the contract is built. Every exported method of
// the state type (and every registered constructor) is described, classified
// and matched to a return shape; argument, result and state schemas are
// derived for the chosen codecs. A single malformed method fails the whole
// contract and no entry point exists for any of them.
package bind

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/covenant/pkg/classify"
	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/schema"
)

// Contract is a bound state type with its entry points.
type Contract struct {
	name       string
	state      reflect.Type
	stateCodec domain.SerializationChoice
	stateObj   schema.Object
	entries    map[string]*Entry
	names      []string
}

type config struct {
	name       string
	stateCodec domain.SerializationChoice
	ctors      []Constructor
}

// Option configures binding.
type Option func(*config)

// WithName sets the contract name (default: the snake_case state type name).
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithStateCodec selects how state is persisted (default: compact binary).
func WithStateCodec(choice domain.SerializationChoice) Option {
	return func(c *config) { c.stateCodec = choice }
}

// Init registers a constructor. The init marker is implied unless
// init(ignore_state) is given.
func Init(name string, fn any, markers ...domain.Marker) Option {
	return func(c *config) {
		c.ctors = append(c.ctors, Constructor{Name: name, Fn: fn, Markers: markers})
	}
}

// New binds the methods of S.
func New[S any](opts ...Option) (*Contract, error) {
	return NewFor(reflect.TypeFor[S](), opts...)
}

// NewFor is New for a state type known only at run time.
func NewFor(state reflect.Type, opts ...Option) (*Contract, error) {
	cfg := &config{stateCodec: domain.CompactBinary}
	for _, opt := range opts {
		opt(cfg)
	}

	ds, err := describe(state, cfg.ctors)
	if err != nil {
		return nil, err
	}
	if cfg.name == "" {
		cfg.name = SnakeCase(state.Name())
	}

	c := &Contract{
		name:       cfg.name,
		state:      state,
		stateCodec: cfg.stateCodec,
		entries:    make(map[string]*Entry, len(ds)),
	}

	var errs []error
	if obj, sErr := schema.ForType(state, cfg.stateCodec); sErr != nil {
		errs = append(errs, &domain.BuildError{
			Kind:    domain.BuildTimeSchemaError,
			Method:  "<state>",
			Reasons: []string{fmt.Sprintf("state type %s: %v", state, sErr)},
		})
	} else {
		c.stateObj = obj
	}

	if reasons := unmatchedMarkers(state); len(reasons) > 0 {
		errs = append(errs, &domain.BuildError{
			Kind:    domain.BuildTimeClassificationError,
			Method:  "<markers>",
			Reasons: reasons,
		})
	}

	for _, d := range ds {
		entry, bErr := bindEntry(d)
		if bErr != nil {
			errs = append(errs, bErr)
			continue
		}
		if _, dup := c.entries[entry.Name()]; dup {
			errs = append(errs, &domain.BuildError{
				Kind:    domain.BuildTimeClassificationError,
				Method:  entry.Name(),
				Reasons: []string{"duplicate method name"},
			})
			continue
		}
		c.entries[entry.Name()] = entry
		c.names = append(c.names, entry.Name())
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.Strings(c.names)
	return c, nil
}

func bindEntry(d described) (*Entry, error) {
	if d.fn.Type().IsVariadic() {
		return nil, &domain.BuildError{
			Kind:    domain.BuildTimeClassificationError,
			Method:  d.desc.Name,
			Reasons: []string{"variadic parameters are not supported"},
		}
	}

	rec, s, err := classify.Shape(d.desc)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Description: d.desc, Record: rec, Shape: s, goName: d.goName, fn: d.fn}

	var reasons []string
	if rec.Kind != domain.Init {
		obj, dErr := schema.Derive(s, rec.Serialization)
		if dErr != nil {
			reasons = append(reasons, schemaReasons(dErr)...)
		}
		entry.Result = obj
	}

	var argTypes []reflect.Type
	for i, p := range d.desc.Params {
		if p.Type.Context && i == 0 {
			entry.withCtx = true
			continue
		}
		argTypes = append(argTypes, p.Type.Go)
		obj, aErr := schema.ForType(p.Type.Go, rec.ArgsSerialization)
		if aErr != nil {
			reasons = append(reasons, fmt.Sprintf("argument %s: %v", p.Name, aErr))
			continue
		}
		entry.Args = append(entry.Args, obj)
	}

	if len(reasons) == 0 {
		binder, bErr := newArgBinder(argTypes, rec.ArgsSerialization)
		if bErr != nil {
			reasons = append(reasons, fmt.Sprintf("arguments: %v", bErr))
		}
		entry.args = binder
	}

	if len(reasons) > 0 {
		return nil, &domain.BuildError{Kind: domain.BuildTimeSchemaError, Method: d.desc.Name, Reasons: reasons}
	}
	return entry, nil
}

func schemaReasons(err error) []string {
	var be *domain.BuildError
	if errors.As(err, &be) {
		return be.Reasons
	}
	return []string{err.Error()}
}

// Name is the contract name.
func (c *Contract) Name() string { return c.name }

// StateType is the bound state type S.
func (c *Contract) StateType() reflect.Type { return c.state }

// StateCodec is how state is persisted.
func (c *Contract) StateCodec() domain.SerializationChoice { return c.stateCodec }

// StateSchema is the schema of S in the state codec.
func (c *Contract) StateSchema() schema.Object { return c.stateObj }

// Entry looks up an entry point by exposed name.
func (c *Contract) Entry(name string) (*Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Entries returns every entry point sorted by name.
func (c *Contract) Entries() []*Entry {
	out := make([]*Entry, len(c.names))
	for i, n := range c.names {
		out[i] = c.entries[n]
	}
	return out
}

// NewState returns a pointer to a zero S.
func (c *Contract) NewState() reflect.Value {
	return reflect.New(c.state)
}

// EncodeState serializes a state value (S or *S).
func (c *Contract) EncodeState(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("encode state: nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Type() != c.state {
		return nil, fmt.Errorf("encode state: got %s, want %s", rv.Type(), c.state)
	}
	return codec.For(c.stateCodec).Marshal(rv.Interface())
}

// DecodeState deserializes stored state into a fresh *S.
func (c *Contract) DecodeState(data []byte) (reflect.Value, error) {
	ptr := c.NewState()
	if err := codec.For(c.stateCodec).Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("decode state: %w", err)
	}
	return ptr, nil
}
