package ports

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Runtime is the session-level surface used by adapters (HTTP, MCP, CLI).
// Every call returns the new State; the input State is never mutated.
type Runtime interface {
	// Start creates a session positioned at the first visible block.
	Start(ctx context.Context, sessionID string) (*domain.State, error)

	// Answer validates and records a value for the current block.
	Answer(ctx context.Context, state *domain.State, value any) (*domain.State, error)

	// Navigate leaves the current block, following its rules or the authored order.
	Navigate(ctx context.Context, state *domain.State) (*domain.State, error)

	// SubmitPage leaves the current page as a whole.
	SubmitPage(ctx context.Context, state *domain.State) (*domain.State, error)

	// Back returns to the previously visited block.
	Back(ctx context.Context, state *domain.State) (*domain.State, error)

	// Survey returns the survey the runtime walks.
	Survey() *domain.Survey
}
