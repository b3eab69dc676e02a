package bind

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wallet struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

type overdraft struct {
	Missing uint64 `json:"missing"`
}

func (e *overdraft) Error() string { return "overdraft" }

type memoKey struct{}

func newWallet(owner string) wallet {
	return wallet{Owner: owner}
}

func (w wallet) Markers() map[string][]domain.Marker {
	return map[string][]domain.Marker{
		"Withdraw":     {domain.MarkerHandleResult},
		"transfer":     {domain.MarkerHandleResult},
		"DepositBorsh": {domain.MarkerSerializerBorsh},
		"Debug":        {domain.MarkerSkip},
	}
}

func (w *wallet) Deposit(amount uint64) uint64 {
	w.Balance += amount
	return w.Balance
}

func (w *wallet) DepositBorsh(amount uint64, times uint32) uint64 {
	w.Balance += amount * uint64(times)
	return w.Balance
}

func (w wallet) GetBalance() uint64 { return w.Balance }

func (w *wallet) Withdraw(amount uint64) (uint64, error) {
	if amount > w.Balance {
		return 0, &overdraft{Missing: amount - w.Balance}
	}
	w.Balance -= amount
	return w.Balance, nil
}

func (w *wallet) Transfer(ctx context.Context, to string, amount uint64) shape.Result[string, *overdraft] {
	if amount > w.Balance {
		return shape.Err[string](&overdraft{Missing: amount - w.Balance})
	}
	w.Balance -= amount
	memo, _ := ctx.Value(memoKey{}).(string)
	return shape.Ok[string, *overdraft](to + memo)
}

func (w *wallet) Reset() { w.Balance = 0 }

func (w wallet) Debug() string { return "debug" }

func bindWallet(t *testing.T) *Contract {
	t.Helper()
	c, err := New[wallet](Init("new", newWallet), WithStateCodec(domain.StructuredText))
	require.NoError(t, err)
	return c
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"IncHandleResult": "inc_handle_result",
		"GetValue":        "get_value",
		"GetHTTPStatus":   "get_http_status",
		"ID":              "id",
		"Inc2Times":       "inc2_times",
		"new":             "new",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestDescribe(t *testing.T) {
	ds, err := Describe(reflect.TypeFor[wallet](), Constructor{Name: "new", Fn: newWallet})
	require.NoError(t, err)

	byName := map[string]domain.MethodDescription{}
	for _, d := range ds {
		byName[d.Name] = d
	}
	assert.NotContains(t, byName, "debug")
	assert.NotContains(t, byName, "markers")

	assert.Equal(t, domain.PointerReceiver, byName["deposit"].Receiver)
	assert.Equal(t, domain.ValueReceiver, byName["get_balance"].Receiver)
	assert.Equal(t, domain.NoReceiver, byName["new"].Receiver)
	assert.Equal(t, []domain.Marker{domain.MarkerInit}, byName["new"].Markers)

	transfer := byName["transfer"]
	require.Len(t, transfer.Params, 3)
	assert.True(t, transfer.Params[0].Type.Context)
	assert.Equal(t, "ctx", transfer.Params[0].Name)
	assert.Equal(t, "arg0", transfer.Params[1].Name, "context is not counted")
	assert.Equal(t, "arg1", transfer.Params[2].Name)
}

func TestDescribe_RejectsNonStruct(t *testing.T) {
	_, err := Describe(reflect.TypeFor[int]())
	assert.Error(t, err)
}

func TestNew_Entries(t *testing.T) {
	c := bindWallet(t)
	assert.Equal(t, "wallet", c.Name())

	var names []string
	for _, e := range c.Entries() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"deposit", "deposit_borsh", "get_balance", "new", "reset", "transfer", "withdraw"}, names)

	get, ok := c.Entry("get_balance")
	require.True(t, ok)
	assert.Equal(t, domain.View, get.Record.Kind)
	assert.Equal(t, "GetBalance", get.GoName())

	withdraw, _ := c.Entry("withdraw")
	assert.Equal(t, domain.ExplicitFallible, withdraw.Record.Return.Kind)
	assert.Equal(t, "uint64", withdraw.Shape.Success.Name)
	assert.Equal(t, "integer", withdraw.Result.Name())

	reset, _ := c.Entry("reset")
	assert.Equal(t, domain.Implicit, reset.Record.Return.Kind)
}

func TestInvoke_PlainAndView(t *testing.T) {
	c := bindWallet(t)
	state := c.NewState()

	deposit, _ := c.Entry("deposit")
	out, err := deposit.Invoke(context.Background(), state, []byte(`5`))
	require.NoError(t, err)
	assert.Equal(t, domain.Success(uint64(5)), out)

	get, _ := c.Entry("get_balance")
	out, err = get.Invoke(context.Background(), state, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), out.Value)

	raw, err := get.EncodeResult(out.Value)
	require.NoError(t, err)
	assert.Equal(t, "5", string(raw))
}

func TestInvoke_Fallible(t *testing.T) {
	c := bindWallet(t)
	state := c.NewState()
	state.Interface().(*wallet).Balance = 3

	withdraw, _ := c.Entry("withdraw")
	out, err := withdraw.Invoke(context.Background(), state, []byte(`10`))
	require.NoError(t, err)
	require.True(t, out.Failed)
	var od *overdraft
	require.True(t, errors.As(out.Err, &od))
	assert.Equal(t, uint64(7), od.Missing)

	out, err = withdraw.Invoke(context.Background(), state, []byte(`1`))
	require.NoError(t, err)
	assert.Equal(t, domain.Success(uint64(2)), out)
}

func TestInvoke_ContextAndTupleArgs(t *testing.T) {
	c := bindWallet(t)
	state := c.NewState()
	state.Interface().(*wallet).Balance = 10

	transfer, _ := c.Entry("transfer")
	ctx := context.WithValue(context.Background(), memoKey{}, "#memo")
	out, err := transfer.Invoke(ctx, state, []byte(`["bob.near", 4]`))
	require.NoError(t, err)
	assert.Equal(t, domain.Success("bob.near#memo"), out)
	assert.Equal(t, uint64(6), state.Interface().(*wallet).Balance)

	_, err = transfer.Invoke(ctx, state, []byte(`["bob.near"]`))
	assert.ErrorContains(t, err, "expected 2 values")

	_, err = transfer.Invoke(ctx, state, []byte(`{"to":"bob"}`))
	assert.Error(t, err)
}

func TestInvoke_EmptyPayloadIsZero(t *testing.T) {
	c := bindWallet(t)
	deposit, _ := c.Entry("deposit")
	out, err := deposit.Invoke(context.Background(), c.NewState(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out.Value)
}

func TestInvoke_BinaryArgs(t *testing.T) {
	c := bindWallet(t)
	state := c.NewState()
	entry, _ := c.Entry("deposit_borsh")
	assert.Equal(t, domain.CompactBinary, entry.Record.ArgsSerialization)

	payload, err := entry.TranscodeArgs([]byte(`[7, 3]`))
	require.NoError(t, err)
	assert.Len(t, payload, 12)

	out, err := entry.Invoke(context.Background(), state, payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(21), out.Value)

	raw, err := entry.EncodeResult(out.Value)
	require.NoError(t, err)
	var back uint64
	require.NoError(t, codec.Borsh().Unmarshal(raw, &back))
	assert.Equal(t, uint64(21), back)

	_, err = entry.TranscodeArgs([]byte(`[7, 5000000000]`))
	assert.ErrorContains(t, err, "out of range")
	_, err = entry.TranscodeArgs([]byte(`[7]`))
	assert.Error(t, err)
}

func TestInvoke_Constructor(t *testing.T) {
	c := bindWallet(t)
	ctor, _ := c.Entry("new")
	assert.Equal(t, domain.Init, ctor.Record.Kind)

	out, err := ctor.Invoke(context.Background(), reflect.Value{}, []byte(`"alice.near"`))
	require.NoError(t, err)
	assert.Equal(t, wallet{Owner: "alice.near"}, out.Value)

	raw, err := ctor.EncodeResult(out.Value)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestInvoke_RequiresState(t *testing.T) {
	c := bindWallet(t)
	deposit, _ := c.Entry("deposit")
	_, err := deposit.Invoke(context.Background(), reflect.Value{}, nil)
	assert.Error(t, err)
}

func TestState_RoundTrip(t *testing.T) {
	for _, choice := range []domain.SerializationChoice{domain.StructuredText, domain.CompactBinary} {
		c, err := New[wallet](Init("new", newWallet), WithStateCodec(choice))
		require.NoError(t, err)

		raw, err := c.EncodeState(&wallet{Owner: "a", Balance: 9})
		require.NoError(t, err)
		back, err := c.DecodeState(raw)
		require.NoError(t, err)
		assert.Equal(t, wallet{Owner: "a", Balance: 9}, *back.Interface().(*wallet))

		_, err = c.EncodeState(42)
		assert.Error(t, err)
	}
}

func TestStateSchema(t *testing.T) {
	c := bindWallet(t)
	raw, err := json.Marshal(c.StateSchema())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "balance")
}

type broken struct{ N uint32 }

func (b *broken) Unhandled() (uint32, error) { return b.N, nil }

func (b *broken) Reset() broken { return broken{} }

func (b *broken) Stream() chan int { return nil }

func (b *broken) Fine() uint32 { return b.N }

func TestNew_BuildErrorsPreventContract(t *testing.T) {
	c, err := New[broken]()
	require.Error(t, err)
	assert.Nil(t, c)

	byMethod := map[string]*domain.BuildError{}
	for _, be := range domain.BuildErrors(err) {
		byMethod[be.Method] = be
	}
	require.Len(t, byMethod, 3)

	assert.Equal(t, domain.BuildTimeClassificationError, byMethod["unhandled"].Kind)
	assert.True(t, byMethod["unhandled"].Has("handle_result"))
	assert.True(t, byMethod["reset"].Has("self-return only valid as a constructor"))
	assert.Equal(t, domain.BuildTimeSchemaError, byMethod["stream"].Kind)
}

type unencodable struct {
	hidden uint32
}

func (u *unencodable) Touch() { u.hidden++ }

func TestNew_StateMustHaveLayout(t *testing.T) {
	_, err := New[unencodable]()
	bes := domain.BuildErrors(err)
	require.Len(t, bes, 1)
	assert.Equal(t, "<state>", bes[0].Method)
	assert.Equal(t, domain.BuildTimeSchemaError, bes[0].Kind)

	// JSON state ignores unexported fields
	_, err = New[unencodable](WithStateCodec(domain.StructuredText))
	assert.NoError(t, err)
}

type overdrawn struct{ Short uint64 }

func (o overdrawn) Error() string { return "overdrawn" }

type brittle struct {
	Balance uint64
}

func (b *brittle) Withdraw(amount uint64) (uint64, overdrawn) {
	b.Balance -= amount
	return b.Balance, overdrawn{}
}

func (b *brittle) Markers() map[string][]domain.Marker {
	return map[string][]domain.Marker{"Withdraw": {domain.MarkerHandleResult}}
}

func TestNew_ValueErrorNeedsResult(t *testing.T) {
	_, err := New[brittle]()
	bes := domain.BuildErrors(err)
	require.Len(t, bes, 1)
	assert.Equal(t, "withdraw", bes[0].Method)
	assert.Equal(t, domain.BuildTimeClassificationError, bes[0].Kind)
	assert.True(t, bes[0].Has("can never signal success"))
	assert.True(t, bes[0].Has("Result[uint64, bind.overdrawn]"))
}

type misspelled struct {
	Balance uint64
}

func (m *misspelled) Withdraw(amount uint64) error {
	m.Balance -= amount
	return nil
}

func (m *misspelled) Markers() map[string][]domain.Marker {
	return map[string][]domain.Marker{
		"withdraw":  {domain.MarkerHandleResult},
		"Widthdraw": {domain.MarkerHandleResult},
	}
}

func TestNew_UnmatchedMarkerKey(t *testing.T) {
	_, err := New[misspelled]()
	bes := domain.BuildErrors(err)
	require.Len(t, bes, 1)
	assert.Equal(t, "<markers>", bes[0].Method)
	assert.Equal(t, domain.BuildTimeClassificationError, bes[0].Kind)
	assert.Equal(t, []string{`marker key "Widthdraw" matches no method`}, bes[0].Reasons)
}
