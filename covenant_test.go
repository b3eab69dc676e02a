package covenant_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/pkg/adapters/memory"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/envelope"
	"github.com/aretw0/covenant/pkg/host"
	"github.com/aretw0/covenant/pkg/persistence/middleware"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tally struct {
	Count uint64   `json:"count"`
	Notes []string `json:"notes"`
}

type shortfall struct {
	Missing uint64 `json:"missing"`
}

func (e *shortfall) Error() string { return "shortfall" }

func newTally(start uint64) tally { return tally{Count: start} }

func (tally) Markers() map[string][]covenant.Marker {
	return map[string][]covenant.Marker{
		"AddBorsh": {covenant.ArgsBorsh},
		"Take":     {covenant.HandleResult},
		"Tip":      {covenant.Payable},
	}
}

func (t *tally) Add(n uint64, note string) uint64 {
	t.Count += n
	t.Notes = append(t.Notes, note)
	return t.Count
}

func (t *tally) AddBorsh(n uint64, note string) uint64 {
	return t.Add(n, note)
}

func (t *tally) Take(n uint64) (uint64, *shortfall) {
	if n > t.Count {
		return 0, &shortfall{Missing: n - t.Count}
	}
	t.Count -= n
	return t.Count, nil
}

func (t *tally) Tip(ctx context.Context) string {
	return host.FromContext(ctx).Deposit().Dec()
}

func (t tally) Get() uint64 { return t.Count }

const alice = "alice.near"

func newRuntime(t *testing.T, opts ...covenant.Option) *covenant.Runtime {
	t.Helper()
	def, err := covenant.Define[tally](covenant.Constructor("new", newTally))
	require.NoError(t, err)
	rt, err := covenant.New(def, opts...)
	require.NoError(t, err)

	resp := rt.Init(context.Background(), alice, "new", []any{uint64(5)})
	require.Equal(t, domain.Committed, resp.Terminal, resp.Diagnostic)
	return rt
}

func get(t *testing.T, rt *covenant.Runtime) uint64 {
	t.Helper()
	var n uint64
	require.NoError(t, rt.View(context.Background(), alice, "get").Decode(&n))
	return n
}

type leaky struct{ N uint32 }

func (l *leaky) Leak() (uint32, error) { return l.N, nil }

func TestDefine_RejectsMalformedMethods(t *testing.T) {
	_, err := covenant.Define[leaky]()
	require.Error(t, err)

	build := domain.BuildErrors(err)
	require.Len(t, build, 1)
	assert.Equal(t, "leak", build[0].Method)
	assert.True(t, build[0].Has("handle_result"))

	assert.Panics(t, func() { covenant.MustDefine[leaky]() })
}

func TestNew_Validation(t *testing.T) {
	_, err := covenant.New(covenant.Definition{})
	assert.Error(t, err)

	def := covenant.MustDefine[tally](covenant.Constructor("new", newTally))
	_, err = covenant.New(def.Versioned("v1"))
	assert.Error(t, err)

	rt, err := covenant.New(def.Versioned("1.2.0"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", rt.ABI().Version)
	assert.Equal(t, "tally", rt.Contract().Name())
}

func TestRuntime_CallAndView(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	var n uint64
	require.NoError(t, rt.Call(ctx, alice, "add", []any{uint64(2), "first"}).Decode(&n))
	assert.Equal(t, uint64(7), n)

	require.NoError(t, rt.Call(ctx, alice, "add_borsh", []any{uint64(3), "second"}).Decode(&n))
	assert.Equal(t, uint64(10), n)

	resp := rt.CallJSON(ctx, alice, "add_borsh", []byte(`[1, "third"]`))
	require.NoError(t, resp.Decode(&n))
	assert.Equal(t, uint64(11), n)

	assert.Equal(t, uint64(11), get(t, rt))

	v, err := rt.StateValue(ctx, alice)
	require.NoError(t, err)
	state, ok := v.(tally)
	require.True(t, ok)
	assert.Equal(t, []string{"first", "second", "third"}, state.Notes)
}

func TestRuntime_KindRestrictions(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	resp := rt.View(ctx, alice, "add", uint64(1), "x")
	assert.Equal(t, domain.Aborted, resp.Terminal)
	assert.Contains(t, resp.Diagnostic, "not view")

	resp = rt.Init(ctx, alice, "get", nil)
	assert.Equal(t, domain.Aborted, resp.Terminal)

	resp = rt.ViewJSON(ctx, alice, "get", nil)
	assert.Equal(t, domain.Committed, resp.Terminal)
	assert.Equal(t, "committed 5", resp.Display())
}

func TestRuntime_HandledFailure(t *testing.T) {
	rt := newRuntime(t)

	resp := rt.Call(context.Background(), alice, "take", []any{uint64(9)})
	assert.Equal(t, domain.RolledBack, resp.Terminal)
	require.NotNil(t, resp.Envelope)

	var sf shortfall
	require.NoError(t, resp.Envelope.Decode(&sf))
	assert.Equal(t, uint64(4), sf.Missing)
	assert.Equal(t, uint64(5), get(t, rt))

	err := resp.Decode(new(uint64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "take rolled_back")
}

func TestRuntime_Deposits(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	var tip string
	require.NoError(t, rt.Call(ctx, alice, "tip", nil, covenant.WithDeposit(uint256.NewInt(7))).Decode(&tip))
	assert.Equal(t, "7", tip)

	resp := rt.Call(ctx, alice, "add", []any{uint64(1), "x"}, covenant.WithDeposit(uint256.NewInt(1)))
	assert.Equal(t, domain.Aborted, resp.Terminal)
	env, err := envelope.ParseDiagnostic(resp.Diagnostic)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(env.ErrorType, "DepositNotAccepted"))
}

func TestRuntime_UnencodableArguments(t *testing.T) {
	var invoked atomic.Int32
	rt := newRuntime(t, covenant.WithLifecycleHooks(domain.LifecycleHooks{
		OnInvoke: func(context.Context, *domain.CallEvent) { invoked.Add(1) },
	}))

	resp := rt.Call(context.Background(), alice, "add", []any{make(chan int), "x"})
	assert.Equal(t, domain.Aborted, resp.Terminal)
	assert.Contains(t, resp.Diagnostic, "failed to encode arguments")
	assert.Empty(t, resp.CallID)
	assert.Equal(t, int32(1), invoked.Load(), "only the constructor reached the dispatcher")
}

func TestRuntime_LifecycleHooks(t *testing.T) {
	var invoked, terminal atomic.Int32
	var last atomic.Value
	hooks := domain.LifecycleHooks{
		OnInvoke: func(_ context.Context, _ *domain.CallEvent) { invoked.Add(1) },
		OnTerminal: func(_ context.Context, ev *domain.CallEvent) {
			terminal.Add(1)
			last.Store(ev.Terminal)
		},
	}
	rt := newRuntime(t, covenant.WithLifecycleHooks(hooks))

	rt.Call(context.Background(), alice, "take", []any{uint64(100)})
	assert.Equal(t, int32(2), invoked.Load())
	assert.Equal(t, int32(2), terminal.Load())
	assert.Equal(t, domain.RolledBack, last.Load())
}

func TestRuntime_EncryptedStore(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	raw := memory.NewStore()
	rt := newRuntime(t,
		covenant.WithStore(raw),
		covenant.WithStoreMiddleware(middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})),
	)
	ctx := context.Background()

	rt.Call(ctx, alice, "add", []any{uint64(1), "secret"})

	rec, err := raw.Load(ctx, alice)
	require.NoError(t, err)
	assert.True(t, rec.Encrypted)
	assert.NotContains(t, string(rec.Data), "secret")

	assert.Equal(t, uint64(6), get(t, rt))

	state, err := rt.State(ctx, alice)
	require.NoError(t, err)
	assert.False(t, state.Encrypted)
	assert.Equal(t, "tally", state.Contract)
}
