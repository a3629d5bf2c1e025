package domain

// Answers maps a field name to the scalar or array value given by the respondent.
type Answers map[string]any

// Clone returns a deep copy of the answers.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = CloneValue(v)
	}
	return out
}

// SessionStatus defines where a form session stands.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"    // Respondent is answering
	StatusSubmitted SessionStatus = "submitted" // Submit destination reached
)

// State represents the current snapshot of a form session.
type State struct {
	SessionID string `json:"session_id"`
	SurveyID  string `json:"survey_id,omitempty"`

	// CurrentPageID and CurrentBlockID locate the respondent in the survey.
	CurrentPageID  string `json:"current_page_id"`
	CurrentBlockID string `json:"current_block_id"`

	Status SessionStatus `json:"status"`

	// Answers is mutated only between navigation steps, on a cloned State.
	Answers Answers `json:"answers"`

	// History records the visited block ids, most recent last.
	History []string `json:"history"`
}

// NewState creates a clean state positioned at the given block.
func NewState(sessionID, pageID, blockID string) *State {
	s := &State{
		SessionID:      sessionID,
		CurrentPageID:  pageID,
		CurrentBlockID: blockID,
		Status:         StatusActive,
		Answers:        make(Answers),
	}
	if blockID != "" {
		s.History = []string{blockID}
	}
	return s
}

// Clone returns a deep copy of the state for safe mutation.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Answers = s.Answers.Clone()
	next.History = append([]string(nil), s.History...)
	return &next
}
