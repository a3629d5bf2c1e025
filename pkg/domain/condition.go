package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ConditionRule is a structured predicate: field, operator, comparison value and an
// optional type hint ("string", "number", "boolean" or "date").
type ConditionRule struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
}

// String renders the rule as "field operator value".
func (r ConditionRule) String() string {
	if r.Value == nil {
		return fmt.Sprintf("%s %s", r.Field, r.Operator)
	}
	raw, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Sprintf("%s %s %v", r.Field, r.Operator, r.Value)
	}
	if r.Type != "" {
		return fmt.Sprintf("%s %s %s (%s)", r.Field, r.Operator, raw, r.Type)
	}
	return fmt.Sprintf("%s %s %s", r.Field, r.Operator, raw)
}

type conditionShape uint8

const (
	shapeNone conditionShape = iota
	shapeExpression
	shapeSingle
	shapeList
)

// Condition is the ConditionExpr of a navigation rule or a visibleIf clause.
// It holds either a free-form Expression or a list of Rules joined by logical AND.
// The zero value is the empty condition, which always holds.
type Condition struct {
	Expression string
	Rules      []ConditionRule

	shape conditionShape
}

// Expr builds a condition from a free-form expression.
func Expr(expression string) Condition {
	return Condition{Expression: expression, shape: shapeExpression}
}

// Rule builds a condition from a single structured predicate.
func Rule(field, operator string, value any) Condition {
	return Condition{
		Rules: []ConditionRule{{Field: field, Operator: operator, Value: value}},
		shape: shapeSingle,
	}
}

// AllOf builds a condition that holds only when every rule holds.
func AllOf(rules ...ConditionRule) Condition {
	return Condition{Rules: append([]ConditionRule(nil), rules...), shape: shapeList}
}

// IsEmpty reports whether the condition carries no expression and no rules.
func (c Condition) IsEmpty() bool {
	return strings.TrimSpace(c.Expression) == "" && len(c.Rules) == 0
}

// IsExpression reports whether the condition is a free-form expression.
func (c Condition) IsExpression() bool {
	return strings.TrimSpace(c.Expression) != ""
}

// String returns the canonical rendering used for edge labels and rule signatures.
func (c Condition) String() string {
	if c.IsExpression() {
		return strings.TrimSpace(c.Expression)
	}
	parts := make([]string, 0, len(c.Rules))
	for _, r := range c.Rules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " && ")
}

// Equal compares two conditions by their canonical rendering.
func (c Condition) Equal(other Condition) bool {
	return c.String() == other.String()
}

// Clone returns a deep copy of the condition.
func (c Condition) Clone() Condition {
	out := Condition{Expression: c.Expression, shape: c.shape}
	if c.Rules != nil {
		out.Rules = make([]ConditionRule, len(c.Rules))
		for i, r := range c.Rules {
			r.Value = CloneValue(r.Value)
			out.Rules[i] = r
		}
	}
	return out
}

// MarshalJSON emits the same shape the condition was built or decoded from.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch {
	case c.IsExpression():
		return json.Marshal(c.Expression)
	case len(c.Rules) == 0:
		return []byte("null"), nil
	case len(c.Rules) == 1 && c.shape == shapeSingle:
		return json.Marshal(c.Rules[0])
	default:
		return json.Marshal(c.Rules)
	}
}

// UnmarshalJSON accepts a string, a single rule object or an array of rules.
func (c *Condition) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = Condition{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("condition expression: %w", err)
		}
		*c = Expr(s)
	case '{':
		var r ConditionRule
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return fmt.Errorf("condition rule: %w", err)
		}
		c.Rules = []ConditionRule{r}
		c.shape = shapeSingle
	case '[':
		var rules []ConditionRule
		if err := json.Unmarshal(trimmed, &rules); err != nil {
			return fmt.Errorf("condition rules: %w", err)
		}
		c.Rules = rules
		c.shape = shapeList
	case 't', 'f':
		// Bare booleans are accepted as the equivalent expression.
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("condition literal: %w", err)
		}
		*c = Expr(fmt.Sprintf("%t", b))
	default:
		return fmt.Errorf("unsupported condition shape: %s", trimmed)
	}
	return nil
}

// CloneValue deep-copies the JSON-like values found in answers and rule operands.
func CloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}
