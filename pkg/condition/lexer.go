package condition

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokRegex
	tokOp
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
	tokDot
)

type token struct {
	kind  tokenKind
	text  string
	flags string // regex flags
	pos   int
}

// SyntaxError reports an expression outside the supported grammar.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition syntax error at %d in %q: %s", e.Pos, e.Expr, e.Msg)
}

var multiCharOps = []string{"===", "!==", "==", "!=", ">=", "<=", "&&", "||", "<>"}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBrack, text: "[", pos: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBrack, text: "]", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '.' && (i+1 >= len(src) || !isDigit(src[i+1])):
			toks = append(toks, token{kind: tokDot, text: ".", pos: i})
			i++
		case c == '"' || c == '\'' || c == '`':
			s, next, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i = next
		case c == '/':
			pattern, flags, next, err := scanRegex(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokRegex, text: pattern, flags: flags, pos: i})
			i = next
		case isDigit(src[i]) || c == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == 'e' || src[i] == 'E') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			op := ""
			for _, candidate := range multiCharOps {
				if strings.HasPrefix(src[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				switch c {
				case '<', '>', '!', '-', '=':
					op = string(c)
				default:
					return nil, &SyntaxError{Expr: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
				}
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return sb.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			i++
			switch src[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(src[i])
			}
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return "", 0, &SyntaxError{Expr: src, Pos: start, Msg: "unterminated string"}
}

func scanRegex(src string, start int) (string, string, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		if c == '\\' && i+1 < len(src) {
			sb.WriteByte(c)
			sb.WriteByte(src[i+1])
			i += 2
			continue
		}
		if c == '/' {
			i++
			flagStart := i
			for i < len(src) && unicode.IsLetter(rune(src[i])) {
				i++
			}
			return sb.String(), src[flagStart:i], i, nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", "", 0, &SyntaxError{Expr: src, Pos: start, Msg: "unterminated regular expression"}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}
