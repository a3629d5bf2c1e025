package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSurveyNotFound is returned when a loader has no survey for the requested id.
var ErrSurveyNotFound = errors.New("survey not found")

// ErrBlockNotFound is returned when a block id does not exist in the survey.
var ErrBlockNotFound = errors.New("block not found")

// ErrPageNotFound is returned when a page id does not exist in the survey.
var ErrPageNotFound = errors.New("page not found")

// ErrEdgeNotFound is returned by graph edits that reference a missing edge.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrNodeNotFound is returned by graph edits that reference a missing node.
var ErrNodeNotFound = errors.New("node not found")

// ErrInvalidRuleSource is returned when a rule would originate from a page, the
// start node or the submit node. Only blocks carry navigation rules.
var ErrInvalidRuleSource = errors.New("navigation rules can only originate from blocks")

// ErrStructuralEdge is returned when an edit targets a structural edge
// (sequential, page-entry, page-to-page, start-entry) that does not map to a rule.
var ErrStructuralEdge = errors.New("edge is structural and does not represent a rule")

// ErrInvalidTarget is returned when a rule would point at the start node.
var ErrInvalidTarget = errors.New("invalid rule target")

// ErrSessionSubmitted is returned when navigating a session that already submitted.
var ErrSessionSubmitted = errors.New("session already submitted")

// DocumentError reports a survey document that could not be decoded or validated.
type DocumentError struct {
	Source  string
	Reasons []string
	Err     error
}

func (e *DocumentError) Error() string {
	msg := "invalid survey document"
	if e.Source != "" {
		msg = fmt.Sprintf("invalid survey document %q", e.Source)
	}
	if len(e.Reasons) > 0 {
		return fmt.Sprintf("%s: %v", msg, e.Reasons)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DocumentError) Unwrap() error { return e.Err }

// ErrNoPreviousBlock is returned by Back when the session is on its first block.
var ErrNoPreviousBlock = errors.New("no previous block to return to")
