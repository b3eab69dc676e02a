package errs

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pkg = "github.com/aretw0/covenant/pkg/errs"

func TestStandardErrors_Envelopes(t *testing.T) {
	idx := uint64(2)
	tests := []struct {
		err   error
		typ   string
		value string
	}{
		{NewContractNotInitialized(), pkg + ".ContractNotInitialized", `{"message":"The contract is not initialized"}`},
		{NewRequireFailed(), pkg + ".RequireFailed", `{"message":"require assertion failed"}`},
		{NewPromiseFailed(nil), pkg + ".PromiseFailed", `{"message":"Promise failed","promise_index":null}`},
		{NewPromiseFailed(&idx), pkg + ".PromiseFailed", `{"message":"Promise failed","promise_index":2}`},
		{NewInvalidArgument("bad %s", "amount"), pkg + ".InvalidArgument", `{"message":"bad amount"}`},
		{&InsufficientBalance{}, pkg + ".InsufficientBalance", `{}`},
	}

	for _, tt := range tests {
		env, err := envelope.Wrap(tt.err, domain.StructuredText)
		require.NoError(t, err)
		assert.Equal(t, tt.typ, env.ErrorType)
		if tt.value == `{}` {
			// no fields set: the message travels instead
			assert.JSONEq(t, `"insufficient balance"`, string(env.Value))
			continue
		}
		assert.JSONEq(t, tt.value, string(env.Value))
	}
}

func TestMessages(t *testing.T) {
	idx := uint64(1)
	assert.Equal(t, "Promise failed (promise 1)", NewPromiseFailed(&idx).Error())
	assert.Equal(t, "Method deposit doesn't accept deposit", (&DepositNotAccepted{Method: "deposit"}).Error())
	assert.Equal(t, "Method sweep is private", (&PrivateMethod{Method: "sweep"}).Error())
	assert.Equal(t, "The contract has already been initialized", NewContractAlreadyInitialized().Error())
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(true, NewInvalidArgument("x")))

	err := Require(false, nil)
	var rf *RequireFailed
	assert.ErrorAs(t, err, &rf)

	custom := &InsufficientBalance{Message: "need more"}
	assert.Same(t, custom, Require(false, custom))
}

func TestBaseError_NestsEnvelope(t *testing.T) {
	base := ToBase(&InsufficientBalance{Message: "Must attach 10 yoctoNEAR to cover storage"})
	assert.Equal(t, pkg+".InsufficientBalance", base.Envelope.ErrorType)

	outer, err := envelope.Wrap(base, domain.StructuredText)
	require.NoError(t, err)
	assert.Equal(t, pkg+".BaseError", outer.ErrorType)
	assert.JSONEq(t,
		`{"error_type":"`+pkg+`.InsufficientBalance","value":{"message":"Must attach 10 yoctoNEAR to cover storage"}}`,
		string(outer.Value))

	var back BaseError
	require.NoError(t, outer.Decode(&back))
	assert.Equal(t, base.Envelope.ErrorType, back.Envelope.ErrorType)
}

func TestBaseError_ErrorIsEnvelopeJSON(t *testing.T) {
	base := ToBase(NewRequireFailed())
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(base.Error()), &decoded))
	assert.Equal(t, pkg+".RequireFailed", decoded["error_type"])
}

func TestToBase_Idempotent(t *testing.T) {
	base := ToBase(NewRequireFailed())
	assert.Equal(t, base, ToBase(base))
}

func TestIs(t *testing.T) {
	base := ToBase(NewContractNotInitialized())
	assert.True(t, Is(base, &ContractNotInitialized{}))
	assert.False(t, Is(base, &RequireFailed{}))
	assert.True(t, errors.Is(base, ToBase(NewContractNotInitialized())))

	direct := NewRequireFailed()
	assert.True(t, Is(direct, direct))
}
