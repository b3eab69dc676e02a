package host

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_Context(t *testing.T) {
	env := NewEnv("alice.near")
	env.Predecessor = "bob.near"
	env.AttachedDeposit = uint256.NewInt(5)

	ctx := WithEnv(context.Background(), env)
	got := FromContext(ctx)
	assert.Same(t, env, got)
	assert.False(t, got.SelfCall())
	assert.Equal(t, uint64(5), got.Deposit().Uint64())

	// copies never alias the stored amount
	got.Deposit().SetUint64(9)
	assert.Equal(t, uint64(5), env.AttachedDeposit.Uint64())
}

func TestEnv_Defaults(t *testing.T) {
	env := FromContext(context.Background())
	assert.True(t, env.Deposit().IsZero())
	assert.Equal(t, "10000000000000000000", env.ByteCost().Dec())
	assert.Error(t, env.Validate())
	assert.NoError(t, NewEnv("a").Validate())
}

func TestLedger(t *testing.T) {
	l := &Ledger{}
	ctx := WithLedger(context.Background(), l)

	amount := uint256.NewInt(10)
	idx := Pay(ctx, "bob.near", amount)
	assert.Equal(t, uint64(0), idx)
	amount.SetUint64(99)

	promises := l.Promises()
	require.Len(t, promises, 1)
	assert.Equal(t, "bob.near", promises[0].To)
	assert.Equal(t, uint64(10), promises[0].Amount.Uint64())
	assert.Equal(t, "transfer 10 yocto to bob.near", promises[0].String())

	l.Discard()
	assert.Empty(t, l.Promises())
}

func TestPay_OutsideCallAborts(t *testing.T) {
	defer func() {
		ab := Recovered(recover())
		require.NotNil(t, ab)
		assert.Contains(t, ab.Message, "outside of a contract call")
	}()
	Pay(context.Background(), "x", uint256.NewInt(1))
}

func TestAbort(t *testing.T) {
	catch := func(fn func()) (ab *AbortError) {
		defer func() { ab = Recovered(recover()) }()
		fn()
		return nil
	}

	assert.Equal(t, "stop", catch(func() { Abort("stop") }).Message)
	assert.Equal(t, "value 3 too big", catch(func() { Abortf("value %d too big", 3) }).Message)
	assert.Nil(t, catch(func() { RequireOrAbort(true, "never") }))
	assert.Equal(t, "needed", catch(func() { RequireOrAbort(false, "needed") }).Message)
	assert.Equal(t, "runtime", catch(func() { panic(errors.New("runtime")) }).Message)
	assert.Equal(t, "42", catch(func() { panic(42) }).Message)
}
