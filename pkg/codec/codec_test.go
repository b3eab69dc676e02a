package codec

import (
	"math"
	"testing"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Owner   string            `json:"owner"`
	Balance uint64            `json:"balance"`
	Tags    []string          `json:"tags"`
	Limits  map[string]uint32 `json:"limits"`
	Nonce   U64               `json:"nonce"`
}

type label string

func sample() account {
	return account{
		Owner:   "alice.near",
		Balance: 42,
		Tags:    []string{"a", "b"},
		Limits:  map[string]uint32{"z": 1, "a": 2},
		Nonce:   math.MaxUint64,
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	c, err := r.For(domain.StructuredText)
	require.NoError(t, err)
	assert.Equal(t, "application/json", c.ContentType())

	c, err = r.For(domain.CompactBinary)
	require.NoError(t, err)
	assert.Equal(t, domain.CompactBinary, c.Choice())
	assert.Same(t, r.ByContentType("application/x-borsh"), c)

	_, err = r.For(domain.SerializationChoice(9))
	assert.Error(t, err)
}

func TestJSON_Canonical(t *testing.T) {
	out, err := JSON().Marshal(map[string]any{"b": 1, "a": []int{3, 2}, "c": 1.50})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[3,2],"b":1,"c":1.5}`, string(out))

	out, err = JSON().Marshal(sample())
	require.NoError(t, err)
	assert.Equal(t, `{"balance":42,"limits":{"a":2,"z":1},"nonce":"18446744073709551615","owner":"alice.near","tags":["a","b"]}`, string(out))
}

func TestJSON_LargeIntegersStayExact(t *testing.T) {
	out, err := JSON().Marshal(struct {
		B uint64 `json:"b"`
		A uint64 `json:"a"`
	}{B: math.MaxUint64, A: 1})
	require.NoError(t, err)
	assert.Equal(t, `{"b":18446744073709551615,"a":1}`, string(out))

	var back struct{ B uint64 }
	require.NoError(t, JSON().Unmarshal(out, &back))
	assert.Equal(t, uint64(math.MaxUint64), back.B)
}

func TestJSON_RoundTrip(t *testing.T) {
	in := sample()
	raw, err := JSON().Marshal(in)
	require.NoError(t, err)

	var out account
	require.NoError(t, JSON().Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestJSON_EmptyPayloadKeepsZero(t *testing.T) {
	var v uint32 = 7
	require.NoError(t, JSON().Unmarshal(nil, &v))
	assert.Equal(t, uint32(7), v)
}

func TestBorsh_RoundTrip(t *testing.T) {
	in := sample()
	raw, err := Borsh().Marshal(in)
	require.NoError(t, err)

	var out account
	require.NoError(t, Borsh().Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestBorsh_Scalars(t *testing.T) {
	raw, err := Borsh().Marshal(uint32(258))
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 0, 0}, raw)

	raw, err = Borsh().Marshal("hi")
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 'h', 'i'}, raw)

	raw, err = Borsh().Marshal(nil)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestBorsh_Errors(t *testing.T) {
	var n uint32
	assert.ErrorContains(t, Borsh().Unmarshal([]byte{1, 0, 0, 0}, n), "non-nil pointer")

	raw, err := Borsh().Marshal("x")
	require.NoError(t, err)
	var l label
	err = Borsh().Unmarshal(raw, &l)
	assert.ErrorContains(t, err, "borsh")
}

func TestU64(t *testing.T) {
	var u U64
	require.NoError(t, u.UnmarshalJSON([]byte(`"123"`)))
	assert.Equal(t, U64(123), u)

	require.NoError(t, u.UnmarshalJSON([]byte(`9`)))
	assert.Equal(t, U64(9), u)

	assert.Error(t, u.UnmarshalJSON([]byte(`"-1"`)))
	assert.Equal(t, "9", u.String())
}
