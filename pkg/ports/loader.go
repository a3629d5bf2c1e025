package ports

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// SurveyLoader defines how the runtime retrieves survey definitions.
// Implementations return a Survey the caller may mutate freely.
type SurveyLoader interface {
	// Load returns the survey with the given id.
	// Returns domain.ErrSurveyNotFound if it does not exist.
	Load(ctx context.Context, surveyID string) (*domain.Survey, error)

	// List returns the ids of every available survey.
	List(ctx context.Context) ([]string, error)
}
