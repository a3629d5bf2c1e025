package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/navigation"
	"github.com/aretw0/surveyflow/pkg/schema"
)

// Engine walks one survey. It holds no session data: every call takes a State
// and returns a new one, leaving the input untouched.
type Engine struct {
	survey    *domain.Survey
	evaluator *condition.Evaluator
	resolver  *navigation.Resolver
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger used for navigation decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEvaluator sets the condition evaluator behind rules and visibleIf.
func WithEvaluator(ev *condition.Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.evaluator = ev
		}
	}
}

// WithLifecycleHooks registers callbacks for block and navigation events.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine for the given survey.
func NewEngine(survey *domain.Survey, opts ...Option) *Engine {
	e := &Engine{
		survey:    survey,
		evaluator: condition.New(),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = navigation.NewResolver(
		navigation.WithEvaluator(e.evaluator),
		navigation.WithLogger(e.logger),
	)
	return e
}

// Survey returns the survey the engine walks.
func (e *Engine) Survey() *domain.Survey {
	return e.survey
}

// CurrentBlock returns the block the session is on. It is false once submitted.
func (e *Engine) CurrentBlock(state *domain.State) (*domain.Block, bool) {
	if state == nil || state.Status == domain.StatusSubmitted {
		return nil, false
	}
	return e.survey.Block(state.CurrentBlockID)
}

// Start creates a session positioned at the first visible block. A survey with
// no visible block starts submitted.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state := domain.NewState(sessionID, "", "")
	state.SurveyID = e.survey.UUID

	blockID := ""
	if len(e.survey.Pages) > 0 {
		var err error
		dest := domain.Destination{Kind: domain.DestinationPage, Target: e.survey.Pages[0]}
		blockID, err = navigation.Land(e.survey, dest, e.resolver.Visible(state.Answers))
		if err != nil {
			return nil, err
		}
	}
	if blockID == "" {
		e.submit(ctx, state)
		return state, nil
	}
	e.enter(ctx, state, blockID)
	return state, nil
}

// Answer validates value against the current block and records it under the
// block's field name. A nil value clears the answer.
func (e *Engine) Answer(ctx context.Context, state *domain.State, value any) (*domain.State, error) {
	block, err := e.current(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateAnswer(block, value); err != nil {
		return nil, err
	}

	next := state.Clone()
	if value == nil {
		delete(next.Answers, block.FieldName)
	} else {
		next.Answers[block.FieldName] = domain.CloneValue(value)
	}
	return next, nil
}

// Navigate leaves the current block. The first matching rule wins; without one
// the session moves to the next visible block in authored order.
func (e *Engine) Navigate(ctx context.Context, state *domain.State) (*domain.State, error) {
	block, err := e.current(ctx, state)
	if err != nil {
		return nil, err
	}
	dest, byRule, err := e.resolver.Advance(e.survey, block.UUID, state.Answers)
	if err != nil {
		return nil, err
	}
	return e.move(ctx, state, block, dest, !byRule)
}

// SubmitPage leaves the current page as a whole. The rules of the page's visible
// blocks are tried in order; without a match the session moves to the next page.
func (e *Engine) SubmitPage(ctx context.Context, state *domain.State) (*domain.State, error) {
	block, err := e.current(ctx, state)
	if err != nil {
		return nil, err
	}
	page, ok := e.survey.PageOf(block.UUID)
	if !ok {
		return nil, fmt.Errorf("%w: page of %s", domain.ErrPageNotFound, block.UUID)
	}

	visible := e.resolver.Visible(state.Answers)
	for _, id := range page.Blocks {
		b, ok := e.survey.Block(id)
		if !ok || !visible(b) {
			continue
		}
		dest := e.resolver.Resolve(b.NavigationRules, state.Answers)
		if dest == nil {
			continue
		}
		if _, err := navigation.Land(e.survey, *dest, visible); err != nil {
			e.logger.Debug("navigation rule target unresolved",
				"session_id", state.SessionID,
				"block", b.UUID,
				"target", dest.Target,
				"err", err,
			)
			break
		}
		return e.move(ctx, state, block, *dest, false)
	}

	dest, err := navigation.NextPage(e.survey, page.UUID, visible)
	if err != nil {
		return nil, err
	}
	return e.move(ctx, state, block, dest, true)
}

// Back returns to the previously visited block. A submitted session reopens on
// the last block it showed.
func (e *Engine) Back(ctx context.Context, state *domain.State) (*domain.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next := state.Clone()

	if state.Status == domain.StatusSubmitted {
		if len(next.History) == 0 {
			return nil, domain.ErrNoPreviousBlock
		}
		next.Status = domain.StatusActive
		e.locate(next, next.History[len(next.History)-1])
		e.emitBlockEnter(ctx, next)
		return next, nil
	}

	if len(next.History) < 2 {
		return nil, domain.ErrNoPreviousBlock
	}
	e.emitBlockLeave(ctx, next)
	next.History = next.History[:len(next.History)-1]
	e.locate(next, next.History[len(next.History)-1])
	e.emitBlockEnter(ctx, next)
	return next, nil
}

// current returns the block a live session sits on.
func (e *Engine) current(ctx context.Context, state *domain.State) (*domain.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", domain.ErrSessionNotFound)
	}
	if state.Status == domain.StatusSubmitted {
		return nil, domain.ErrSessionSubmitted
	}
	block, ok := e.survey.Block(state.CurrentBlockID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, state.CurrentBlockID)
	}
	return block, nil
}

func (e *Engine) move(ctx context.Context, state *domain.State, from *domain.Block, dest domain.Destination, sequential bool) (*domain.State, error) {
	target, err := navigation.Land(e.survey, dest, e.resolver.Visible(state.Answers))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("navigation resolved",
		"session_id", state.SessionID,
		"from", from.UUID,
		"kind", dest.Kind,
		"target", dest.Target,
		"sequential", sequential,
	)

	next := state.Clone()
	e.emitBlockLeave(ctx, next)
	if e.hooks.OnNavigate != nil {
		e.hooks.OnNavigate(ctx, &domain.NavigationEvent{
			EventBase:   e.base(domain.EventNavigate, next.SessionID),
			FromBlockID: from.UUID,
			Destination: dest,
			Sequential:  sequential,
		})
	}

	if target == "" {
		e.submit(ctx, next)
		return next, nil
	}
	e.enter(ctx, next, target)
	return next, nil
}

func (e *Engine) enter(ctx context.Context, state *domain.State, blockID string) {
	state.History = append(state.History, blockID)
	e.locate(state, blockID)
	e.emitBlockEnter(ctx, state)
}

func (e *Engine) submit(ctx context.Context, state *domain.State) {
	state.Status = domain.StatusSubmitted
	state.CurrentBlockID = ""
	state.CurrentPageID = ""
	if e.hooks.OnSubmit != nil {
		base := e.base(domain.EventSubmit, state.SessionID)
		e.hooks.OnSubmit(ctx, &base)
	}
}

func (e *Engine) locate(state *domain.State, blockID string) {
	state.CurrentBlockID = blockID
	if p, ok := e.survey.PageOf(blockID); ok {
		state.CurrentPageID = p.UUID
	}
}

func (e *Engine) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitBlockEnter(ctx context.Context, state *domain.State) {
	if e.hooks.OnBlockEnter == nil {
		return
	}
	e.hooks.OnBlockEnter(ctx, &domain.BlockEvent{
		EventBase: e.base(domain.EventBlockEnter, state.SessionID),
		BlockID:   state.CurrentBlockID,
		PageID:    state.CurrentPageID,
	})
}

func (e *Engine) emitBlockLeave(ctx context.Context, state *domain.State) {
	if e.hooks.OnBlockLeave == nil {
		return
	}
	e.hooks.OnBlockLeave(ctx, &domain.BlockEvent{
		EventBase: e.base(domain.EventBlockLeave, state.SessionID),
		BlockID:   state.CurrentBlockID,
		PageID:    state.CurrentPageID,
	})
}
