package mcp_test

import (
	"context"
	"testing"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/examples/counter"
	adapter "github.com/aretw0/covenant/pkg/adapters/mcp"
	"github.com/aretw0/covenant/pkg/envelope"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *adapter.Server {
	t.Helper()
	rt, err := covenant.New(counter.MustDefinition())
	require.NoError(t, err)
	s, err := adapter.NewServer(rt)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, s *adapter.Server, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := s.CallTool(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestServer_ToolsFollowABI(t *testing.T) {
	s := newServer(t)

	var names []string
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "new")
	assert.Contains(t, names, "inc_persist_on_err")
	assert.Contains(t, names, "get_value")
	assert.Contains(t, names, adapter.StateTool)
}

func TestServer_CallTool(t *testing.T) {
	s := newServer(t)
	acct := "counter.near"

	_, isErr := call(t, s, "new", map[string]any{"account": acct})
	require.False(t, isErr)

	text, isErr := call(t, s, "inc_just_simple", map[string]any{"account": acct, "args": false})
	assert.False(t, isErr)
	assert.Equal(t, "1", text)

	text, isErr = call(t, s, "inc_just_result", map[string]any{"account": acct, "args": true})
	assert.True(t, isErr)
	env, err := envelope.ParseDiagnostic(text)
	require.NoError(t, err)
	assert.Contains(t, env.ErrorType, "Rejected")

	text, isErr = call(t, s, "inc_just_simple", map[string]any{"account": acct, "args": true})
	assert.True(t, isErr)
	assert.Equal(t, "Error", text)

	text, isErr = call(t, s, adapter.StateTool, map[string]any{"account": acct})
	assert.False(t, isErr)
	assert.JSONEq(t, `{"value":1}`, text)
}

func TestServer_CallToolRejects(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		msg  string
	}{
		{"unknown method", "nope", map[string]any{"account": "a.near"}, "unknown method"},
		{"missing account", "touch", map[string]any{}, "account is required"},
		{"wrong argument type", "inc_just_simple", map[string]any{"account": "a.near", "args": "x"}, "argument arg0"},
		{"bad deposit", "touch", map[string]any{"account": "a.near", "deposit": "many"}, "invalid deposit"},
		{"no state", adapter.StateTool, map[string]any{"account": "ghost.near"}, "no state for ghost.near"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, s, tt.tool, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.msg)
		})
	}
}
