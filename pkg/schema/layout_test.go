package schema

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level uint8

type tokenID string

type Flag struct{}

type token struct {
	Flag
	ID       tokenID           `json:"token_id"`
	Owner    string            `json:"owner"`
	Level    level             `json:"level"`
	Supply   big.Int           `json:"supply"`
	Balance  uint256.Int       `json:"balance"`
	Approved map[string]uint64 `json:"approved"`
	Memo     *string           `json:"memo,omitempty"`
	Tags     []string
	Blob     []byte
	Cache    string `borsh_skip:"true"`
}

type node struct {
	Next *node
}

type hidden struct {
	value uint32
}

func TestLayout_Struct(t *testing.T) {
	typ, err := Layout(reflect.TypeFor[token]())
	require.NoError(t, err)

	st, ok := typ.(*StructType)
	require.True(t, ok)
	assert.Equal(t, "token", st.Name())
	assert.Equal(t, []string{"token_id", "owner", "level", "supply", "balance", "approved", "memo", "Tags", "Blob"}, st.Fields())

	s := st.Schema()
	assert.Equal(t, "string", s["token_id"].Name())
	assert.Equal(t, "u8", s["level"].Name())
	assert.Equal(t, "u128", s["supply"].Name())
	assert.Equal(t, "u256", s["balance"].Name())
	assert.Equal(t, "Map<string,u64>", s["approved"].Name())
	assert.Equal(t, "Option<string>", s["memo"].Name())
	assert.Equal(t, "[string]", s["Tags"].Name())
	assert.Equal(t, "bytes", s["Blob"].Name())
}

func TestLayout_Rejects(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{"platform int", reflect.TypeFor[int](), "platform-sized"},
		{"interface", reflect.TypeFor[error](), "no binary layout"},
		{"channel", reflect.TypeFor[chan int](), "no binary layout"},
		{"func", reflect.TypeFor[func()](), "no binary layout"},
		{"complex", reflect.TypeFor[complex128](), "no binary layout"},
		{"unexported field", reflect.TypeFor[hidden](), "unexported field"},
		{"recursive", reflect.TypeFor[node](), "recursive type"},
		{"top-level named scalar", reflect.TypeFor[tokenID](), "named scalar"},
		{"named scalar element", reflect.TypeFor[[]tokenID](), "named scalar"},
		{"nested platform int", reflect.TypeFor[map[string]int](), "map value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Layout(tt.typ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLayout_NamedByteIsEncodable(t *testing.T) {
	typ, err := Layout(reflect.TypeFor[level]())
	require.NoError(t, err)
	assert.Equal(t, "u8", typ.Name())
}

func TestLayout_ValidatesJSONInput(t *testing.T) {
	typ, err := Layout(reflect.TypeFor[token]())
	require.NoError(t, err)

	input := map[string]any{
		"token_id": "t-1",
		"owner":    "alice",
		"level":    3.0,
		"supply":   "100",
		"balance":  "1",
		"approved": map[string]any{"bob": 1.0},
		"memo":     nil,
		"Tags":     []any{},
		"Blob":     "AAE=",
	}
	assert.NoError(t, typ.Validate(input))

	input["level"] = 300.0
	err = typ.Validate(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level")
}
