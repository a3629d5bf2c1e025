package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Loader implements ports.SurveyLoader over surveys held in memory.
type Loader struct {
	mu      sync.RWMutex
	surveys map[string]*domain.Survey
}

// NewLoader creates a Loader holding copies of the given surveys, keyed by root uuid.
func NewLoader(surveys ...*domain.Survey) *Loader {
	l := &Loader{surveys: make(map[string]*domain.Survey, len(surveys))}
	for _, s := range surveys {
		l.surveys[s.UUID] = s.Clone()
	}
	return l
}

// NewFromDocuments decodes JSON survey documents into a Loader.
// This keeps table-driven tests close to the wire format.
func NewFromDocuments(docs ...string) (*Loader, error) {
	l := NewLoader()
	for i, raw := range docs {
		s, err := domain.DecodeDocument([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if s.UUID == "" {
			return nil, fmt.Errorf("document %d: survey missing uuid", i)
		}
		l.surveys[s.UUID] = s
	}
	return l, nil
}

// Put stores or replaces a survey.
func (l *Loader) Put(s *domain.Survey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.surveys[s.UUID] = s.Clone()
}

// Load returns a copy of the survey with the given id.
func (l *Loader) Load(ctx context.Context, surveyID string) (*domain.Survey, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.surveys[surveyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, surveyID)
	}
	return s.Clone(), nil
}

// List returns all survey ids in sorted order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.surveys))
	for k := range l.surveys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
