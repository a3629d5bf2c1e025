package surveyflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/surveyflow/internal/runtime"
	"github.com/aretw0/surveyflow/pkg/adapters/file"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/layout"
	"github.com/aretw0/surveyflow/pkg/navigation"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// Engine is the high-level entry point for the surveyflow library.
// It wraps the internal runtime and the graph tooling of one survey.
type Engine struct {
	runtime   *runtime.Engine
	survey    *domain.Survey
	loader    ports.SurveyLoader
	evaluator *condition.Evaluator
	resolver  *navigation.Resolver
	sandbox   bool
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	Name      string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader reads the survey from a SurveyLoader; New's source is then the survey id.
func WithLoader(l ports.SurveyLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithSurvey uses an already built survey; New's source becomes a label.
func WithSurvey(s *domain.Survey) Option {
	return func(e *Engine) {
		e.survey = s
	}
}

// WithEvaluator sets the condition evaluator behind rules and visibleIf.
func WithEvaluator(ev *condition.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// WithSandboxFallback lets expressions outside the condition grammar run in the
// restricted expression sandbox. Ignored when WithEvaluator is given.
func WithSandboxFallback(enabled bool) Option {
	return func(e *Engine) {
		e.sandbox = enabled
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. By default source is the path of a JSON or YAML
// survey document. With WithLoader it is the survey id, with WithSurvey a label.
func New(source string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	switch {
	case eng.survey != nil:
		eng.Name = source
	case eng.loader != nil:
		s, err := eng.loader.Load(context.Background(), source)
		if err != nil {
			return nil, fmt.Errorf("failed to load survey %q: %w", source, err)
		}
		eng.survey = s
		eng.Name = source
	default:
		if source == "" {
			return nil, fmt.Errorf("survey path is required when no loader or survey is provided")
		}
		s, err := file.ReadSurvey(source)
		if err != nil {
			return nil, err
		}
		eng.survey = s
		eng.Name = filepath.Base(source)
	}
	if eng.Name == "" {
		eng.Name = eng.survey.UUID
	}
	eng.logger = eng.logger.With("survey", eng.Name)

	if eng.evaluator == nil {
		eng.evaluator = condition.New(
			condition.WithLogger(eng.logger),
			condition.WithSandboxFallback(eng.sandbox),
		)
	}

	eng.resolver = navigation.NewResolver(navigation.WithEvaluator(eng.evaluator), navigation.WithLogger(eng.logger))
	eng.runtime = runtime.NewEngine(eng.survey,
		runtime.WithEvaluator(eng.evaluator),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	return eng, nil
}

// Survey returns the survey the engine walks.
func (e *Engine) Survey() *domain.Survey {
	return e.survey
}

// Start creates a session positioned at the first visible block.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.runtime.Start(ctx, sessionID)
}

// Answer validates and records a value for the current block.
func (e *Engine) Answer(ctx context.Context, state *domain.State, value any) (*domain.State, error) {
	return e.runtime.Answer(ctx, state, value)
}

// Navigate leaves the current block, following its rules or the authored order.
func (e *Engine) Navigate(ctx context.Context, state *domain.State) (*domain.State, error) {
	return e.runtime.Navigate(ctx, state)
}

// SubmitPage leaves the current page as a whole.
func (e *Engine) SubmitPage(ctx context.Context, state *domain.State) (*domain.State, error) {
	return e.runtime.SubmitPage(ctx, state)
}

// Back returns to the previously visited block.
func (e *Engine) Back(ctx context.Context, state *domain.State) (*domain.State, error) {
	return e.runtime.Back(ctx, state)
}

// CurrentBlock returns the block the session is on.
func (e *Engine) CurrentBlock(state *domain.State) (*domain.Block, bool) {
	return e.runtime.CurrentBlock(state)
}

// Resolve evaluates a rule list with the engine's evaluator.
func (e *Engine) Resolve(rules []domain.NavigationRule, answers domain.Answers) *domain.Destination {
	return e.resolver.Resolve(rules, answers)
}

// Graph converts the survey into its flow graph, laid out with opts.
func (e *Engine) Graph(opts layout.Options) domain.FlowGraph {
	return layout.Layout(flow.ToGraph(e.survey), opts)
}

// Cycles lists the navigation loops of the survey.
func (e *Engine) Cycles() []string {
	return flow.FindCycles(flow.ToGraph(e.survey))
}

// Check reports structural problems of the survey.
func (e *Engine) Check() []flow.Issue {
	return flow.Check(e.survey, flow.ToGraph(e.survey))
}

// Runtime exposes the engine as a ports.Runtime for adapters.
func (e *Engine) Runtime() ports.Runtime {
	return e.runtime
}
