package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// ReadGraph decodes a flow graph JSON document from path, or from in when
// path is "-".
func ReadGraph(path string, in io.Reader) (domain.FlowGraph, error) {
	var g domain.FlowGraph
	data, err := readInput(path, in)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("invalid graph document: %w", err)
	}
	return g, nil
}

func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteMarkdown renders md with glamour when w is a terminal and writes it
// verbatim otherwise.
func WriteMarkdown(w io.Writer, md, style string) error {
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		render, err := tui.NewRenderer(style, 100)
		if err == nil {
			if out, err := render(md); err == nil {
				md = out
			}
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

// ParseCondition reads a condition given on the command line: a JSON rule or
// group when it starts with "{" or "[", an expression otherwise.
func ParseCondition(raw string) (domain.Condition, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var c domain.Condition
		if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
			return domain.Condition{}, fmt.Errorf("invalid condition: %w", err)
		}
		return c, nil
	}
	return domain.Expr(trimmed), nil
}

// ParseAnswers decodes a JSON object of answers. "@path" reads it from a file.
func ParseAnswers(raw string) (domain.Answers, error) {
	answers := domain.Answers{}
	if raw == "" {
		return answers, nil
	}
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		b, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, err
		}
		data = b
	}
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("invalid answers: %w", err)
	}
	return answers, nil
}
