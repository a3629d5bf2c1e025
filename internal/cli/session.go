package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/presentation/tui"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// RunOptions configures an interactive session.
type RunOptions struct {
	// Source is a survey document path or a survey id.
	Source string
	// SessionID resumes a stored session; empty starts a fresh one.
	SessionID string
	// Reset discards any stored state for SessionID first.
	Reset bool
	// Headless disables the banner, prompts and markdown rendering. It is
	// forced when Input is not a terminal.
	Headless bool
	// Style names a glamour style; empty detects the terminal background.
	Style string
	// JSON exchanges prompts and answers as JSON Lines.
	JSON bool

	Input  io.Reader
	Output io.Writer
}

// RunSession walks a survey over the terminal and persists the state reached
// through the stack's session manager.
func RunSession(ctx context.Context, stack *Stack, opts RunOptions) (*domain.State, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	headless := opts.Headless || opts.JSON || !isTerminal(opts.Input)

	engine, err := stack.OpenEngine(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("error initializing surveyflow: %w", err)
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if opts.Reset {
		if err := stack.Sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}

	state, err := stack.Sessions.LoadOrStart(ctx, sessionID, engine.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to init session: %w", err)
	}
	if state.SurveyID != "" && state.SurveyID != engine.Survey().UUID {
		return nil, fmt.Errorf("session %s belongs to survey %s", sessionID, state.SurveyID)
	}
	stack.Logger.Info("Session Active", "session_id", sessionID, "block", state.CurrentBlockID)

	r := &surveyflow.Runner{
		Input:    opts.Input,
		Output:   opts.Output,
		Headless: headless,
		JSON:     opts.JSON,
	}
	if !headless {
		tui.PrintBanner(opts.Output)
		if render, err := tui.NewRenderer(opts.Style, 80); err == nil {
			r.Renderer = render
		} else {
			stack.Logger.Warn("Markdown Renderer Unavailable", "err", err)
		}
	}

	final, runErr := r.Resume(ctx, engine, state)
	if final != nil {
		// The run context may already be cancelled; the reached state is still saved.
		if err := stack.Sessions.Save(context.WithoutCancel(ctx), sessionID, final); err != nil {
			return final, errors.Join(runErr, fmt.Errorf("failed to save session: %w", err))
		}
		stack.Logger.Info("Session Saved", "session_id", sessionID, "block", final.CurrentBlockID, "status", final.Status)
	}
	if errors.Is(runErr, context.Canceled) {
		return final, nil
	}
	return final, runErr
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
