package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/editor"
	"github.com/aretw0/surveyflow/pkg/history"
	"github.com/aretw0/surveyflow/pkg/layout"
	"github.com/aretw0/surveyflow/pkg/navigation"
	"github.com/aretw0/surveyflow/pkg/observability"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/session"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// RuntimeFactory builds the runtime that walks one survey.
type RuntimeFactory func(*domain.Survey) ports.Runtime

// Server exposes the condition, navigation, graph and session operations over HTTP.
type Server struct {
	loader    ports.SurveyLoader
	sessions  *session.Manager
	evaluator *condition.Evaluator
	resolver  *navigation.Resolver
	runtimes  RuntimeFactory
	layout    layout.Options
	capacity  int
	metrics   *observability.Metrics
	hooks     domain.LifecycleHooks
	origins   []string
	logger    *slog.Logger

	Streams *StreamManager

	mu      sync.Mutex
	editors map[string]*editor.Editor
}

// Option configures a Server.
type Option func(*Server)

// WithEvaluator sets the evaluator behind /conditions and /navigation.
func WithEvaluator(ev *condition.Evaluator) Option {
	return func(s *Server) {
		s.evaluator = ev
	}
}

// WithRuntimeFactory replaces the default survey runtime.
func WithRuntimeFactory(f RuntimeFactory) Option {
	return func(s *Server) {
		s.runtimes = f
	}
}

// WithLayout sets the options used whenever a graph is laid out.
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

// WithMetrics instruments requests and exposes /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLifecycleHooks is passed to the runtime of every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = hooks
	}
}

// WithCORSOrigins restricts Access-Control-Allow-Origin. Empty allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server reading surveys from loader and keeping sessions in sessions.
func NewServer(loader ports.SurveyLoader, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		loader:   loader,
		sessions: sessions,
		layout:   layout.DefaultOptions(),
		capacity: history.DefaultCapacity,
		logger:   logging.NewNop(),
		Streams:  NewStreamManager(),
		editors:  make(map[string]*editor.Editor),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = condition.New(condition.WithLogger(s.logger))
	}
	s.resolver = navigation.NewResolver(navigation.WithEvaluator(s.evaluator), navigation.WithLogger(s.logger))
	if s.runtimes == nil {
		s.runtimes = func(sv *domain.Survey) ports.Runtime {
			return runtime.NewEngine(sv,
				runtime.WithEvaluator(s.evaluator),
				runtime.WithLifecycleHooks(s.hooks),
				runtime.WithLogger(s.logger),
			)
		}
	}
	return s
}

// NewHandler is shorthand for NewServer(...).Handler().
func NewHandler(loader ports.SurveyLoader, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(loader, sessions, opts...).Handler()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	if s.metrics != nil {
		r.Use(s.instrument)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Post("/conditions/evaluate", s.EvaluateCondition)
	r.Post("/conditions/validate", s.ValidateCondition)
	r.Post("/navigation/resolve", s.ResolveNavigation)

	r.Post("/transform/graph", s.TreeToGraph)
	r.Post("/transform/tree", s.GraphToTree)
	r.Route("/graph", func(r chi.Router) {
		r.Post("/layout", s.LayoutGraph)
		r.Post("/cycles", s.GraphCycles)
		r.Post("/check", s.CheckGraph)
		r.Post("/retarget", s.RetargetGraph)
		r.Post("/export", s.ExportGraph)
	})

	r.Route("/surveys", func(r chi.Router) {
		r.Get("/", s.ListSurveys)
		r.Route("/{surveyID}", func(r chi.Router) {
			r.Get("/", s.GetSurvey)
			r.Get("/graph", s.GetSurveyGraph)
			r.Get("/cycles", s.GetSurveyCycles)
			r.Get("/check", s.GetSurveyCheck)
			r.Post("/sessions", s.StartSession)

			r.Route("/editor", func(r chi.Router) {
				r.Get("/", s.GetEditor)
				r.Post("/retarget", s.EditorRetarget)
				r.Post("/connect", s.EditorConnect)
				r.Post("/remove", s.EditorRemove)
				r.Post("/layout", s.EditorLayout)
				r.Post("/undo", s.EditorUndo)
				r.Post("/redo", s.EditorRedo)
			})
		})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/answer", s.AnswerSession)
			r.Post("/navigate", s.NavigateSession)
			r.Post("/submit-page", s.SubmitPageSession)
			r.Post("/back", s.BackSession)
			r.Get("/graph", s.GetSessionGraph)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.origins) > 0 {
			origin = ""
			req := r.Header.Get("Origin")
			for _, o := range s.origins {
				if o == "*" || strings.EqualFold(o, req) {
					origin = req
					break
				}
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records every request by its route pattern so ids do not explode
// the label space.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(route, r.Method, status, time.Since(start))
		s.logger.Debug("request served", "method", r.Method, "route", route, "status", status,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
