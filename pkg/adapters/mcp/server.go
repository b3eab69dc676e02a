// Package mcp exposes a contract as a Model Context Protocol server: one
// tool per method, plus the ABI and per-account state as resources.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/internal/logging"
	"github.com/aretw0/covenant/pkg/abi"
	"github.com/aretw0/covenant/pkg/dispatch"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/holiman/uint256"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const (
	// ABIResource is the URI of the contract ABI resource.
	ABIResource = "covenant://abi"
	// StateTool reads stored state. A contract method of the same name wins.
	StateTool = "contract_state"
)

// Runtime is what the server needs from a covenant runtime.
type Runtime interface {
	CallJSON(ctx context.Context, account, method string, payload []byte, opts ...covenant.CallOption) dispatch.Response
	ABI() *abi.Document
	StateValue(ctx context.Context, account string) (any, error)
}

var _ Runtime = (*covenant.Runtime)(nil)

// CallInput is the argument object every method tool accepts.
type CallInput struct {
	Account     string `mapstructure:"account"`
	Args        any    `mapstructure:"args"`
	Deposit     string `mapstructure:"deposit"`
	Predecessor string `mapstructure:"predecessor"`
}

// Server wraps a Runtime and exposes it as an MCP Server.
type Server struct {
	runtime   Runtime
	logger    *slog.Logger
	mcpServer *server.MCPServer
	tools     []mcp.Tool
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger for tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server for rt.
func NewServer(rt Runtime, opts ...Option) (*Server, error) {
	s := &Server{
		runtime: rt,
		logger:  logging.NewNop(),
		mcpServer: server.NewMCPServer("covenant-mcp", strings.TrimSpace(covenant.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// Tools lists the registered tools in ABI order.
func (s *Server) Tools() []mcp.Tool { return s.tools }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() error {
	doc := s.runtime.ABI()
	for _, m := range doc.Methods {
		schema, err := inputSchema(m)
		if err != nil {
			return fmt.Errorf("mcp: tool %s: %w", m.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(m.Name, description(doc.Name, m), schema)
		s.mcpServer.AddTool(tool, s.CallTool)
		s.tools = append(s.tools, tool)
	}

	if _, taken := doc.Method(StateTool); taken {
		return nil
	}
	state := mcp.NewTool(StateTool,
		mcp.WithDescription("Read the decoded state stored for an account."),
		mcp.WithString("account", mcp.Required(), mcp.Description("Account the contract runs as")),
	)
	s.mcpServer.AddTool(state, s.CallTool)
	s.tools = append(s.tools, state)
	return nil
}

func description(contract string, m abi.Method) string {
	desc := fmt.Sprintf("%s method %s of %s.", m.Kind, m.Name, contract)
	if m.Payable {
		desc += " Accepts a deposit."
	}
	if m.Return.Kind == domain.ExplicitFallible {
		desc += " Handled failures return an error envelope."
	}
	return desc
}

func inputSchema(m abi.Method) (json.RawMessage, error) {
	props := map[string]any{
		"account":     map[string]any{"type": "string", "description": "Account the contract runs as"},
		"deposit":     map[string]any{"type": "string", "description": "Attached deposit as a decimal integer"},
		"predecessor": map[string]any{"type": "string", "description": "Calling account"},
	}
	if ref := m.RequestSchema(); ref != nil {
		props["args"] = ref
	}
	return json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"account"},
	})
}

// CallTool runs the method named by the request. Committed calls return the
// result text; handled failures return the error envelope and aborts the
// plain diagnostic, both flagged as tool errors.
func (s *Server) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name
	m, ok := s.runtime.ABI().Method(name)
	if !ok && name == StateTool {
		return s.handleGetState(ctx, request)
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", domain.ErrUnknownMethod, name)), nil
	}

	var in CallInput
	if err := mapstructure.Decode(request.GetArguments(), &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if in.Account == "" {
		return mcp.NewToolResultError("account is required"), nil
	}
	if err := m.ValidateArgs(in.Args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var opts []covenant.CallOption
	if in.Predecessor != "" {
		opts = append(opts, covenant.WithPredecessor(in.Predecessor))
	}
	if in.Deposit != "" {
		amount, err := uint256.FromDecimal(in.Deposit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid deposit: %v", err)), nil
		}
		opts = append(opts, covenant.WithDeposit(amount))
	}

	var payload []byte
	if in.Args != nil {
		raw, err := json.Marshal(in.Args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		payload = raw
	}

	resp := s.runtime.CallJSON(ctx, in.Account, name, payload, opts...)
	s.logger.Debug("MCP call", "method", name, "account", in.Account, "terminal", resp.Terminal)
	return toolResult(resp), nil
}

func toolResult(resp dispatch.Response) *mcp.CallToolResult {
	if resp.Terminal != domain.Committed {
		return mcp.NewToolResultError(resp.Diagnostic)
	}
	if resp.Codec == domain.CompactBinary && len(resp.Result) > 0 {
		return mcp.NewToolResultText("borsh:" + base64.StdEncoding.EncodeToString(resp.Result))
	}
	return mcp.NewToolResultText(string(resp.Result))
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	account, err := request.RequireString("account")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.runtime.StateValue(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no state for %s", account)), nil
		}
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ABIResource, "Contract ABI",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw, err := s.runtime.ABI().JSON()
		if err != nil {
			return nil, fmt.Errorf("failed to render abi: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ABIResource,
				MIMEType: "application/json",
				Text:     string(raw),
			},
		}, nil
	})
}
