package surveyflow

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/schema"
)

// Runner drives a survey over line-oriented IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// JSON switches to JSON Lines: every prompt is written as a Prompt object
	// and every input line is a JSON value, or plain text.
	JSON bool
}

// Prompt is the JSON Lines form of a block waiting for an answer.
type Prompt struct {
	SessionID string   `json:"session_id"`
	PageID    string   `json:"page_id"`
	BlockID   string   `json:"block_id"`
	Type      string   `json:"type,omitempty"`
	Label     string   `json:"label"`
	Options   []string `json:"options,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ContentRenderer transforms a block prompt before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Runner commands typed instead of an answer.
const (
	CommandBack = ":back"
	CommandSkip = ":skip"
	CommandQuit = ":quit"
)

// Run starts a session and loops until the survey is submitted, the input ends
// or the respondent quits. It returns the last state reached.
func (r *Runner) Run(ctx context.Context, engine *Engine, sessionID string) (*domain.State, error) {
	state, err := engine.Start(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return r.Resume(ctx, engine, state)
}

// Resume continues an existing session.
func (r *Runner) Resume(ctx context.Context, engine *Engine, state *domain.State) (*domain.State, error) {
	if r.Input == nil {
		return nil, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)
	var enc *json.Encoder
	if r.JSON {
		enc = json.NewEncoder(r.Output)
	}
	var lastErr error

	if !r.Headless && !r.JSON {
		fmt.Fprintf(r.Output, "--- %s ---\n", engine.Name)
	}

	for state.Status != domain.StatusSubmitted {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		block, ok := engine.CurrentBlock(state)
		if !ok {
			return state, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, state.CurrentBlockID)
		}
		if r.JSON {
			p := Prompt{
				SessionID: state.SessionID, PageID: state.CurrentPageID, BlockID: block.UUID,
				Type: block.Type, Label: block.DisplayName(), Options: block.Options,
			}
			if lastErr != nil {
				p.Error = lastErr.Error()
			}
			if err := enc.Encode(p); err != nil {
				return state, err
			}
		} else {
			r.prompt(block)
		}
		lastErr = nil

		text, err := lines.ReadString('\n')
		if err != nil && text == "" {
			if errors.Is(err, io.EOF) {
				return state, nil
			}
			return state, fmt.Errorf("input error: %w", err)
		}
		input, err := SanitizeInput(strings.TrimSpace(text))
		if err != nil {
			lastErr = r.fail(err)
			continue
		}
		input, value, typed := r.decode(input)

		switch input {
		case CommandQuit:
			if !r.JSON {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return state, nil
		case CommandBack:
			prev, err := engine.Back(ctx, state)
			if err != nil {
				lastErr = r.fail(err)
				continue
			}
			state = prev
			continue
		case CommandSkip:
			input, typed = "", false
		}

		next := state
		if schema.AcceptsAnswer(block) {
			if !typed {
				value, err = schema.ParseAnswer(block, input)
			}
			if err == nil {
				next, err = engine.Answer(ctx, state, value)
			}
			if err != nil {
				lastErr = r.fail(err)
				continue
			}
		}

		next, err = engine.Navigate(ctx, next)
		if err != nil {
			return state, fmt.Errorf("navigation error: %w", err)
		}
		state = next
	}

	switch {
	case r.JSON:
		if err := enc.Encode(state); err != nil {
			return state, err
		}
	case !r.Headless:
		fmt.Fprintln(r.Output, "Survey submitted. Thank you!")
	}
	return state, nil
}

// decode reads a JSON Lines input. Strings and plain text stay raw so they go
// through the block's answer parser; other JSON values are answers as is.
func (r *Runner) decode(input string) (string, any, bool) {
	if !r.JSON || input == "" {
		return input, nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(input), &v); err != nil {
		return input, nil, false
	}
	if s, isString := v.(string); isString {
		return s, nil, false
	}
	return input, v, true
}

// fail reports a rejected input. In JSON mode the error rides on the next prompt.
func (r *Runner) fail(err error) error {
	if !r.JSON {
		fmt.Fprintf(r.Output, "! %v\n", err)
	}
	return err
}

func (r *Runner) prompt(b *domain.Block) {
	var sb strings.Builder
	sb.WriteString(b.DisplayName())
	for i, o := range b.Options {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, o)
	}
	text := sb.String()
	if r.Renderer != nil {
		if rendered, err := r.Renderer(text); err == nil {
			text = strings.TrimSpace(rendered)
		}
	}
	fmt.Fprintln(r.Output, text)
	if !r.Headless {
		fmt.Fprint(r.Output, "> ")
	}
}
