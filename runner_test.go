package covenant_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/covenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Headless(t *testing.T) {
	def := covenant.MustDefine[tally](covenant.Constructor("new", newTally))
	rt, err := covenant.New(def)
	require.NoError(t, err)

	input := strings.Join([]string{
		"new 5",
		`add [2, "x"]`,
		"take 100",
		":state",
		":deposit 3",
		"tip",
		":deposit abc",
		":nope",
		"get",
		":deposit 0",
		"get",
		"exit",
		"get",
	}, "\n")
	var out bytes.Buffer
	r := covenant.NewRunner("bob.near")
	r.Input = strings.NewReader(input)
	r.Output = &out
	r.Headless = true

	require.NoError(t, r.Run(context.Background(), rt))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "committed", lines[0])
	assert.Equal(t, "committed 7", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "rolled_back {\"error\""))
	assert.Equal(t, `{"count":7,"notes":["x"]}`, lines[3])
	assert.Equal(t, `committed "3"`, lines[4])
	assert.True(t, strings.HasPrefix(lines[5], "error: deposit"))
	assert.Equal(t, "error: unknown command :nope", lines[6])
	assert.Equal(t, `aborted {"error":{"error_type":"github.com/aretw0/covenant/pkg/errs.DepositNotAccepted","value":{"method":"get"}}}`, lines[7])
	assert.Equal(t, "committed 7", lines[8])
}

func TestRunner_ABI(t *testing.T) {
	def := covenant.MustDefine[tally](covenant.Constructor("new", newTally))
	rt, err := covenant.New(def)
	require.NoError(t, err)

	var out bytes.Buffer
	r := &covenant.Runner{
		Input:    strings.NewReader(":abi\n:account carol.near\n:state\n"),
		Output:   &out,
		Headless: true,
		Account:  "bob.near",
		Renderer: func(s string) (string, error) { return strings.ToUpper(s), nil },
	}
	require.NoError(t, r.Run(context.Background(), rt))

	assert.Contains(t, out.String(), "| `ADD` |")
	assert.Contains(t, out.String(), "error: ")
	assert.Equal(t, "carol.near", r.Account)
}

func TestRunner_RequiresIO(t *testing.T) {
	rt, err := covenant.New(covenant.MustDefine[tally](covenant.Constructor("new", newTally)))
	require.NoError(t, err)

	assert.Error(t, covenant.NewRunner("x").Run(context.Background(), rt))
}
