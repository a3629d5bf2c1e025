package navigation

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// VisibleFunc reports whether a block is shown for the current answers.
type VisibleFunc func(*domain.Block) bool

// AllVisible treats every block as visible.
func AllVisible(*domain.Block) bool { return true }

// Resolver evaluates navigation rules with a condition evaluator.
type Resolver struct {
	evaluator *condition.Evaluator
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEvaluator sets the condition evaluator.
func WithEvaluator(ev *condition.Evaluator) Option {
	return func(r *Resolver) {
		if ev != nil {
			r.evaluator = ev
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		evaluator: condition.New(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// Resolve returns the destination of the first matching rule using a default Resolver.
func Resolve(rules []domain.NavigationRule, answers domain.Answers) *domain.Destination {
	return defaultResolver.Resolve(rules, answers)
}

// Resolve returns the destination of the first rule, in author order, whose
// condition holds. Default rules match unconditionally, so with several
// defaults the first one wins. It returns nil when nothing matches.
func (r *Resolver) Resolve(rules []domain.NavigationRule, answers domain.Answers) *domain.Destination {
	idx := r.Match(rules, answers)
	if idx < 0 {
		return nil
	}
	dest := domain.DestinationOf(rules[idx])
	return &dest
}

// Match returns the index of the winning rule, or -1.
func (r *Resolver) Match(rules []domain.NavigationRule, answers domain.Answers) int {
	for i, rule := range rules {
		if rule.IsDefault || r.evaluator.Evaluate(rule.Condition, answers) {
			r.logger.Debug("navigation rule matched", "index", i, "target", rule.Target, "default", rule.IsDefault)
			return i
		}
	}
	return -1
}

// Visible returns a VisibleFunc evaluating each block's visibleIf against answers.
func (r *Resolver) Visible(answers domain.Answers) VisibleFunc {
	return func(b *domain.Block) bool {
		if b.VisibleIf == nil {
			return true
		}
		return r.evaluator.Evaluate(*b.VisibleIf, answers)
	}
}

// Advance resolves the block's rules and falls back to the sequential successor.
// A matching rule whose target no longer exists is skipped in favour of the
// sequential successor. The returned flag reports whether the destination came
// from a rule.
func (r *Resolver) Advance(survey *domain.Survey, blockID string, answers domain.Answers) (domain.Destination, bool, error) {
	b, ok := survey.Block(blockID)
	if !ok {
		return domain.Destination{}, false, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, blockID)
	}
	visible := r.Visible(answers)
	if dest := r.Resolve(b.NavigationRules, answers); dest != nil {
		_, err := Land(survey, *dest, visible)
		if err == nil {
			return *dest, true, nil
		}
		r.logger.Debug("navigation rule target unresolved", "block", blockID, "target", dest.Target, "err", err)
	}
	dest, err := NextSequential(survey, blockID, visible)
	return dest, false, err
}

// NextSequential returns the structural successor of a block: the next visible
// block of its page, the first visible block of a following page, or submit.
func NextSequential(survey *domain.Survey, blockID string, visible VisibleFunc) (domain.Destination, error) {
	if visible == nil {
		visible = AllVisible
	}
	page, ok := survey.PageOf(blockID)
	if !ok {
		return domain.Destination{}, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, blockID)
	}

	pos := -1
	for i, id := range page.Blocks {
		if id == blockID {
			pos = i
			break
		}
	}
	for _, id := range page.Blocks[pos+1:] {
		if b, ok := survey.Block(id); ok && visible(b) {
			return domain.Destination{Kind: domain.DestinationBlock, Target: id}, nil
		}
	}
	return firstVisibleFrom(survey, survey.PageIndex(page.UUID)+1, visible), nil
}

// NextPage returns the first visible block after the given page, or submit.
func NextPage(survey *domain.Survey, pageID string, visible VisibleFunc) (domain.Destination, error) {
	idx := survey.PageIndex(pageID)
	if idx < 0 {
		return domain.Destination{}, fmt.Errorf("%w: %s", domain.ErrPageNotFound, pageID)
	}
	if visible == nil {
		visible = AllVisible
	}
	return firstVisibleFrom(survey, idx+1, visible), nil
}

func firstVisibleFrom(survey *domain.Survey, pageIdx int, visible VisibleFunc) domain.Destination {
	for _, pid := range survey.Pages[min(pageIdx, len(survey.Pages)):] {
		p, _ := survey.Page(pid)
		for _, id := range p.Blocks {
			if b, ok := survey.Block(id); ok && visible(b) {
				return domain.Destination{Kind: domain.DestinationBlock, Target: id}
			}
		}
	}
	return domain.Destination{Kind: domain.DestinationSubmit}
}

// Land turns a destination into the concrete block the runtime should show.
// Block references match uuid or field name; page references land on the first
// visible block of that page, or of a later page when it has none. An empty
// block id means submit.
func Land(survey *domain.Survey, dest domain.Destination, visible VisibleFunc) (string, error) {
	if visible == nil {
		visible = AllVisible
	}
	switch dest.Kind {
	case domain.DestinationSubmit:
		return "", nil
	case domain.DestinationPage:
		p, ok := survey.FindPage(dest.Target)
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrPageNotFound, dest.Target)
		}
		next := firstVisibleFrom(survey, survey.PageIndex(p.UUID), visible)
		return next.Target, nil
	default:
		b, ok := survey.FindBlock(dest.Target)
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrBlockNotFound, dest.Target)
		}
		return b.UUID, nil
	}
}
