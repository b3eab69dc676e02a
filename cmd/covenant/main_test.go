package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t     *testing.T
	store string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("COVENANT_CONFIG", "")
	return &cli{t: t, store: filepath.Join(t.TempDir(), "state")}
}

// run executes one invocation against a file store shared by the test.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--store", "file", "--store-path", c.store, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "covenant version "))
}

func TestABI(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "abi", "counter")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "counter"`)

	out, err = c.run("", "abi", "--format", "openapi")
	require.NoError(t, err)
	assert.Contains(t, out, `"/methods/inc_just_result"`)

	out, err = c.run("", "abi", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| `get_value` |")

	_, err = c.run("", "abi", "-f", "xml")
	assert.ErrorContains(t, err, "unknown format")
	_, err = c.run("", "abi", "ledger")
	assert.ErrorContains(t, err, "contract not found")
}

func TestCallViewState(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "call", "counter", "new", "-a", "c.near")
	require.NoError(t, err)
	assert.Equal(t, "committed\n", out)

	out, err = c.run("", "call", "counter", "inc_just_simple", "false", "-a", "c.near")
	require.NoError(t, err)
	assert.Equal(t, "committed 1\n", out)

	out, err = c.run("", "call", "counter", "inc_persist_on_err", "true", "-a", "c.near")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "committed_with_error "))

	out, err = c.run("", "view", "counter", "get_value", "-a", "c.near")
	require.NoError(t, err)
	assert.Equal(t, "committed 2\n", out)

	_, err = c.run("", "view", "counter", "touch", "-a", "c.near")
	assert.Error(t, err, "view refuses call methods")

	_, err = c.run("", "call", "counter", "touch", "-a", "c.near", "--deposit", "1")
	assert.ErrorContains(t, err, "DepositNotAccepted")

	out, err = c.run("", "state", "counter", "-a", "c.near")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": 2`)
	assert.Contains(t, out, `"codec": "borsh"`)

	_, err = c.run("", "call", "counter", "touch")
	assert.ErrorContains(t, err, "no account")
}

func TestCheck(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "get_value.json"),
		[]byte(`{"receiver":"value","results":[{"type":"uint32"}]}`), 0644))

	out, err := c.run("", "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "get_value (view")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "withdraw.json"),
		[]byte(`{"receiver":"pointer","results":[{"type":"uint64"},{"type":"error"}]}`), 0644))

	out, err = c.run("", "check", dir)
	assert.ErrorContains(t, err, "1 of 2 methods failed classification")
	assert.Contains(t, out, "FAIL withdraw")

	_, err = c.run("", "check")
	assert.ErrorContains(t, err, "--contract is required")
}

func TestCheck_RegisteredContract(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("", "check", "--contract", "counter")
	require.NoError(t, err)
	assert.Contains(t, out, "inc_persist_on_err (call, explicit_fallible, persist_on_error)")
	assert.Contains(t, out, "new (init")
	assert.Contains(t, out, ", 0 failed")
}

func TestRepl_Headless(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("new\ninc_just_simple false\nget_value\nexit\n", "repl", "counter", "-a", "r.near")
	require.NoError(t, err)
	assert.Equal(t, "committed\ncommitted 1\ncommitted 1\n", out)
}
