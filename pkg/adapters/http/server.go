// Package http serves a contract over HTTP: one POST route per method,
// plus the ABI, its OpenAPI document and read access to stored state.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/internal/logging"
	"github.com/aretw0/covenant/pkg/abi"
	"github.com/aretw0/covenant/pkg/codec"
	"github.com/aretw0/covenant/pkg/dispatch"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/holiman/uint256"
	"golang.org/x/time/rate"
)

// MaxBodyBytes caps the size of a call body.
const MaxBodyBytes = 1 << 20

const (
	HeaderAccount      = "X-Account"
	HeaderPredecessor  = "X-Predecessor"
	HeaderDeposit      = "X-Deposit"
	HeaderCallID       = "X-Call-Id"
	HeaderTerminal     = "X-Terminal"
	HeaderStateVersion = "X-State-Version"
)

// Runtime is what the server needs from a covenant runtime.
type Runtime interface {
	CallJSON(ctx context.Context, account, method string, payload []byte, opts ...covenant.CallOption) dispatch.Response
	ABI() *abi.Document
	StateValue(ctx context.Context, account string) (any, error)
}

var _ Runtime = (*covenant.Runtime)(nil)

// Server handles the routes of one contract.
type Server struct {
	Runtime Runtime

	logger  *slog.Logger
	limiter *rate.Limiter
	metrics http.Handler
	spec    []byte
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit admits rps calls per second with the given burst; excess
// calls get 429. Zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for rt.
func NewHandler(rt Runtime, opts ...Option) (http.Handler, error) {
	s := &Server{Runtime: rt, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	spec, err := rt.ABI().OpenAPI().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to render openapi document: %w", err)
	}
	s.spec = spec

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/abi", s.GetABI)
	r.Get("/openapi.json", s.GetSpec)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Get("/state/{account}", s.GetState)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.With(s.rateLimit).Post(abi.BasePath+"/{method}", s.Call)

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", HeaderAccount, HeaderPredecessor, HeaderDeposit}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", strings.Join([]string{HeaderCallID, HeaderTerminal, HeaderStateVersion}, ", "))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Covenant API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Call handles POST /methods/{method}.
//
// Status codes follow the terminal: 200 committed, 422 handled failure
// (rolled back or committed with error, body is the envelope), 400 aborted
// or malformed request (plain text), 404 unknown method.
func (s *Server) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "method")
	m, ok := s.Runtime.ABI().Method(name)
	if !ok {
		http.Error(w, fmt.Sprintf("%v: %s", domain.ErrUnknownMethod, name), http.StatusNotFound)
		return
	}

	account := r.Header.Get(HeaderAccount)
	if account == "" {
		http.Error(w, "missing "+HeaderAccount+" header", http.StatusBadRequest)
		return
	}
	var opts []covenant.CallOption
	if p := r.Header.Get(HeaderPredecessor); p != "" {
		opts = append(opts, covenant.WithPredecessor(p))
	}
	if d := r.Header.Get(HeaderDeposit); d != "" {
		amount, err := uint256.FromDecimal(d)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid %s header: %v", HeaderDeposit, err), http.StatusBadRequest)
			return
		}
		opts = append(opts, covenant.WithDeposit(amount))
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if err := validate(m, body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Debug("Call rejected", "method", name, "err", err)
		return
	}

	resp := s.Runtime.CallJSON(r.Context(), account, name, body, opts...)
	s.write(w, resp)
}

func validate(m abi.Method, body []byte) error {
	var decoded any
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return m.ValidateArgs(decoded)
}

func (s *Server) write(w http.ResponseWriter, resp dispatch.Response) {
	h := w.Header()
	if resp.CallID != "" {
		h.Set(HeaderCallID, resp.CallID)
	}
	h.Set(HeaderTerminal, string(resp.Terminal))
	if resp.StateVersion > 0 {
		h.Set(HeaderStateVersion, strconv.FormatUint(resp.StateVersion, 10))
	}

	switch resp.Terminal {
	case domain.Committed:
		if len(resp.Result) > 0 {
			h.Set("Content-Type", codec.For(resp.Codec).ContentType())
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Result)
	case domain.RolledBack, domain.CommittedWithError:
		h.Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, resp.Diagnostic)
	default:
		http.Error(w, resp.Diagnostic, http.StatusBadRequest)
	}
}

// GetState handles GET /state/{account}: the decoded state as JSON.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	v, err := s.Runtime.StateValue(r.Context(), account)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("State load failed", "account", account, "err", err)
		http.Error(w, "failed to load state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, v)
}

// GetABI handles GET /abi.
func (s *Server) GetABI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.Runtime.ABI())
}

// GetSpec handles GET /openapi.json.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.spec)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	doc := s.Runtime.ABI()
	writeJSON(w, s.logger, map[string]string{
		"app":              "covenant-http",
		"version":          strings.TrimSpace(covenant.Version),
		"contract":         doc.Name,
		"contract_version": doc.Version,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
