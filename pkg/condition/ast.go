package condition

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// rootAliases resolve to the whole answer map unless an answer uses that name.
var rootAliases = map[string]bool{"values": true, "answers": true, "data": true, "form": true}

type env struct {
	answers domain.Answers
	eval    *Evaluator
}

// expr is a node of the parsed expression tree.
type expr interface {
	eval(*env) any
}

type literalExpr struct{ value any }

func (n *literalExpr) eval(*env) any { return n.value }

type identExpr struct{ name string }

func (n *identExpr) eval(e *env) any {
	if v, ok := e.answers[n.name]; ok {
		return v
	}
	if rootAliases[n.name] {
		return map[string]any(e.answers)
	}
	return nil
}

type arrayExpr struct{ elems []expr }

func (n *arrayExpr) eval(e *env) any {
	out := make([]any, len(n.elems))
	for i, el := range n.elems {
		out[i] = el.eval(e)
	}
	return out
}

type regexExpr struct {
	re *regexp.Regexp
}

func (n *regexExpr) eval(*env) any { return n.re }

type notExpr struct{ x expr }

func (n *notExpr) eval(e *env) any { return !truthy(n.x.eval(e)) }

type negExpr struct{ x expr }

func (n *negExpr) eval(e *env) any {
	f, ok := toNumber(n.x.eval(e))
	if !ok {
		return nil
	}
	return -f
}

type logicalExpr struct {
	and         bool
	left, right expr
}

func (n *logicalExpr) eval(e *env) any {
	l := truthy(n.left.eval(e))
	if n.and {
		return l && truthy(n.right.eval(e))
	}
	return l || truthy(n.right.eval(e))
}

type compareExpr struct {
	op          Operator
	left, right expr
}

func (n *compareExpr) eval(e *env) any {
	var rv any
	if n.right != nil {
		rv = n.right.eval(e)
	}
	return e.eval.apply(n.op, n.left.eval(e), rv, "")
}

type memberExpr struct {
	x    expr
	name string
}

func (n *memberExpr) eval(e *env) any {
	v := n.x.eval(e)
	if n.name == "length" {
		switch t := v.(type) {
		case string:
			return float64(utf8.RuneCountInString(t))
		case nil:
			return nil
		}
		if items, ok := toSlice(v); ok && isSlice(v) {
			return float64(len(items))
		}
	}
	if m, ok := v.(map[string]any); ok {
		return m[n.name]
	}
	return nil
}

type indexExpr struct{ x, idx expr }

func (n *indexExpr) eval(e *env) any {
	v := n.x.eval(e)
	key := n.idx.eval(e)
	if m, ok := v.(map[string]any); ok {
		return m[toString(key)]
	}
	if items, ok := toSlice(v); ok && isSlice(v) {
		i, ok := toNumber(key)
		if !ok || i < 0 || int(i) >= len(items) {
			return nil
		}
		return items[int(i)]
	}
	return nil
}

// allowedMethods maps a method name to its arity.
var allowedMethods = map[string]int{
	"includes":    1,
	"contains":    1,
	"startsWith":  1,
	"endsWith":    1,
	"test":        1,
	"match":       1,
	"toLowerCase": 0,
	"toUpperCase": 0,
	"trim":        0,
}

type callExpr struct {
	recv   expr
	method string
	args   []expr
}

func (n *callExpr) eval(e *env) any {
	recv := n.recv.eval(e)
	args := make([]any, len(n.args))
	for i, a := range n.args {
		args[i] = a.eval(e)
	}

	if re, ok := recv.(*regexp.Regexp); ok {
		if n.method == "test" {
			return args[0] != nil && re.MatchString(toString(args[0]))
		}
		return false
	}

	switch n.method {
	case "includes", "contains":
		if recv == nil {
			return false
		}
		if isSlice(recv) {
			return member(recv, args[0])
		}
		return strings.Contains(toString(recv), toString(args[0]))
	case "startsWith":
		return recv != nil && strings.HasPrefix(toString(recv), toString(args[0]))
	case "endsWith":
		return recv != nil && strings.HasSuffix(toString(recv), toString(args[0]))
	case "match":
		re, ok := args[0].(*regexp.Regexp)
		return ok && recv != nil && re.MatchString(toString(recv))
	case "toLowerCase":
		if recv == nil {
			return nil
		}
		return strings.ToLower(toString(recv))
	case "toUpperCase":
		if recv == nil {
			return nil
		}
		return strings.ToUpper(toString(recv))
	case "trim":
		if recv == nil {
			return nil
		}
		return strings.TrimSpace(toString(recv))
	}
	return nil
}

// truthy follows the usual expression-language truthiness rules.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case *regexp.Regexp:
		return true
	}
	if f, ok := numericOnly(v); ok {
		return f != 0
	}
	return true
}
