package condition

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// Observer is notified after every top-level evaluation. kind is "expression" or "rules".
type Observer func(kind string, result bool, elapsed time.Duration)

// Evaluator decides whether a condition holds for a set of answers.
// It is safe for concurrent use once constructed.
type Evaluator struct {
	now      func() time.Time
	logger   *slog.Logger
	sandbox  *sandbox
	observer Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock replaces the clock used by date operators.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSandboxFallback lets expressions outside the built-in grammar be
// evaluated by a restricted expr-lang program bound to the answers only.
func WithSandboxFallback(enabled bool) Option {
	return func(e *Evaluator) {
		if enabled {
			e.sandbox = newSandbox()
		} else {
			e.sandbox = nil
		}
	}
}

// WithObserver registers a callback invoked after each evaluation.
func WithObserver(obs Observer) Option {
	return func(e *Evaluator) {
		e.observer = obs
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// Evaluate reports whether cond holds using the default evaluator.
func Evaluate(cond domain.Condition, answers domain.Answers) bool {
	return defaultEvaluator.Evaluate(cond, answers)
}

// Validate reports whether expression is inside the supported grammar.
func Validate(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return nil
	}
	_, err := parse(expression)
	return err
}

// Evaluate reports whether cond holds. An empty condition is always true.
// Malformed conditions evaluate to false and never panic.
func (e *Evaluator) Evaluate(cond domain.Condition, answers domain.Answers) (result bool) {
	if cond.IsEmpty() {
		return true
	}
	start := e.now()
	kind := "rules"
	if cond.IsExpression() {
		kind = "expression"
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("condition evaluation panicked", "condition", cond.String(), "panic", fmt.Sprint(r))
			result = false
		}
		if e.observer != nil {
			e.observer(kind, result, e.now().Sub(start))
		}
	}()

	if cond.IsExpression() {
		return e.EvaluateExpression(cond.Expression, answers)
	}
	for _, rule := range cond.Rules {
		if !e.EvaluateRule(rule, answers) {
			return false
		}
	}
	return true
}

// EvaluateRule applies one structured rule.
func (e *Evaluator) EvaluateRule(rule domain.ConditionRule, answers domain.Answers) bool {
	op, ok := ParseOperator(rule.Operator)
	if !ok {
		e.logger.Debug("unknown condition operator", "operator", rule.Operator, "field", rule.Field)
		return false
	}
	return e.apply(op, Lookup(answers, rule.Field), rule.Value, strings.ToLower(rule.Type))
}

// EvaluateExpression evaluates a free-form expression. Expressions outside the
// grammar are false unless the sandbox fallback is enabled.
func (e *Evaluator) EvaluateExpression(expression string, answers domain.Answers) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true
	}
	root, err := parse(expression)
	if err != nil {
		if e.sandbox != nil {
			v, serr := e.sandbox.run(expression, answers)
			if serr == nil {
				return v
			}
			e.logger.Debug("sandbox evaluation failed", "expression", expression, "err", serr)
			return false
		}
		e.logger.Debug("rejected condition expression", "expression", expression, "err", err)
		return false
	}
	return truthy(root.eval(&env{answers: answers, eval: e}))
}

// Lookup resolves a field name, falling back to a dotted path through nested maps.
func Lookup(answers domain.Answers, field string) any {
	if v, ok := answers[field]; ok {
		return v
	}
	if !strings.Contains(field, ".") {
		return nil
	}
	var cur any = map[string]any(answers)
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}
