package domain

import (
	"reflect"
)

// StateDiff represents the changes between two session states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentPageID  *string        `json:"current_page_id,omitempty"`
	CurrentBlockID *string        `json:"current_block_id,omitempty"`
	Status         *SessionStatus `json:"status,omitempty"`

	// Answers contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Answers map[string]any `json:"answers,omitempty"`

	// History contains the block ids appended since the old state.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the visited-block stack.
// Truncated is set when the new history is shorter (the respondent went back).
type HistoryDelta struct {
	Appended  []string `json:"appended,omitempty"`
	Truncated int      `json:"truncated,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.CurrentPageID != newState.CurrentPageID {
		diff.CurrentPageID = &newState.CurrentPageID
	}
	if oldState == nil || oldState.CurrentBlockID != newState.CurrentBlockID {
		diff.CurrentBlockID = &newState.CurrentBlockID
	}
	if oldState == nil || oldState.Status != newState.Status {
		diff.Status = &newState.Status
	}
	diff.Answers = diffAnswers(oldState, newState)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old *State, new *State) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Answers {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Answers {
			oldVal, exists := old.Answers[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.Answers {
			if _, exists := new.Answers[k]; !exists {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffHistory(old *State, new *State) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: new.History}
	}

	oldLen, newLen := len(old.History), len(new.History)
	switch {
	case newLen > oldLen:
		return &HistoryDelta{Appended: new.History[oldLen:]}
	case newLen < oldLen:
		return &HistoryDelta{Truncated: oldLen - newLen}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentPageID == nil &&
		d.CurrentBlockID == nil &&
		d.Status == nil &&
		len(d.Answers) == 0 &&
		d.History == nil
}
