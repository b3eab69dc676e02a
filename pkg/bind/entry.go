package bind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/schema"
	"github.com/aretw0/covenant/pkg/shape"
)

// Entry is one bound, externally callable method. Entries are immutable.
type Entry struct {
	Description domain.MethodDescription
	Record      domain.ClassificationRecord
	Shape       shape.Shape

	// Result is the schema of the success value in the result codec.
	Result schema.Object
	// Args holds one schema per non-context parameter in the args codec.
	Args []schema.Object

	goName  string
	fn      reflect.Value
	withCtx bool
	args    *argBinder
}

// Name is the exposed method name.
func (e *Entry) Name() string { return e.Record.Name }

// GoName is the name of the implementing Go method or constructor.
func (e *Entry) GoName() string { return e.goName }

// ArgTypes lists the Go types of the non-context parameters.
func (e *Entry) ArgTypes() []reflect.Type {
	return append([]reflect.Type(nil), e.args.types...)
}

// Invoke decodes args, runs the method and normalizes its results.
//
// state must be a *S for calls and views; it is ignored by constructors,
// whose successful Outcome.Value is the new state. A decode failure is
// returned as an error. Panics raised by the method are not recovered here.
func (e *Entry) Invoke(ctx context.Context, state reflect.Value, args []byte) (domain.Outcome, error) {
	in, err := e.args.decode(args)
	if err != nil {
		return domain.Outcome{}, err
	}

	call := make([]reflect.Value, 0, len(in)+2)
	if e.Description.Receiver != domain.NoReceiver {
		if !state.IsValid() || state.Kind() != reflect.Pointer || state.IsNil() {
			return domain.Outcome{}, fmt.Errorf("method %s needs a state pointer", e.Name())
		}
		call = append(call, state)
	}
	if e.withCtx {
		if ctx == nil {
			ctx = context.Background()
		}
		call = append(call, reflect.ValueOf(ctx))
	}
	call = append(call, in...)

	return e.Shape.Normalize(e.fn.Call(call)), nil
}

// TranscodeArgs converts a JSON payload into the codec the method's
// arguments use, validating it against the argument layout on the way.
func (e *Entry) TranscodeArgs(payload []byte) ([]byte, error) {
	return e.args.transcode(payload)
}

// EncodeResult serializes a success value with the method's result codec.
// Unit results encode to nothing.
func (e *Entry) EncodeResult(v any) ([]byte, error) {
	if e.Record.Kind == domain.Init || e.Shape.Success.IsUnit() {
		return nil, nil
	}
	return codec.For(e.Record.Serialization).Marshal(v)
}
