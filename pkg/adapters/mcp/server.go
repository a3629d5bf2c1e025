package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	surveyflow "github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/editor"
	"github.com/aretw0/surveyflow/pkg/history"
	"github.com/aretw0/surveyflow/pkg/layout"
	"github.com/aretw0/surveyflow/pkg/navigation"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/session"
)

// Server exposes the survey tooling as MCP tools and resources.
type Server struct {
	loader    ports.SurveyLoader
	sessions  *session.Manager
	evaluator *condition.Evaluator
	resolver  *navigation.Resolver
	layout    layout.Options
	capacity  int
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu      sync.Mutex
	editors map[string]*editor.Editor
}

// Option configures a Server.
type Option func(*Server)

// WithEvaluator sets the evaluator used by every tool.
func WithEvaluator(ev *condition.Evaluator) Option {
	return func(s *Server) {
		s.evaluator = ev
	}
}

// WithLayout sets the layout options of graph tools.
func WithLayout(opts layout.Options) Option {
	return func(s *Server) {
		s.layout = opts
	}
}

// WithHistoryCapacity bounds the undo history of each editor.
func WithHistoryCapacity(n int) Option {
	return func(s *Server) {
		s.capacity = n
	}
}

// WithLogger sets the server logger. Stdio servers must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(loader ports.SurveyLoader, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		loader:    loader,
		sessions:  sessions,
		layout:    layout.DefaultOptions(),
		capacity:  history.DefaultCapacity,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("surveyflow-mcp", strings.TrimSpace(surveyflow.Version)),
		editors:   make(map[string]*editor.Editor),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = condition.New(condition.WithLogger(s.logger))
	}
	s.resolver = navigation.NewResolver(navigation.WithEvaluator(s.evaluator), navigation.WithLogger(s.logger))

	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("surveyflow://surveys", "Available surveys",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.loader.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list surveys: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "surveyflow://surveys",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) runtimeFor(sv *domain.Survey) ports.Runtime {
	return runtime.NewEngine(sv, runtime.WithEvaluator(s.evaluator), runtime.WithLogger(s.logger))
}

// editor returns the editor of a survey, opening it on first use.
func (s *Server) editor(ctx context.Context, surveyID string) (*editor.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ed, ok := s.editors[surveyID]; ok {
		return ed, nil
	}
	sv, err := s.loader.Load(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	ed := editor.New(sv,
		editor.WithLayout(s.layout),
		editor.WithHistory(history.New(s.capacity)),
		editor.WithLogger(s.logger.With("survey", surveyID)),
	)
	s.editors[surveyID] = ed
	return ed, nil
}

func newSessionID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
