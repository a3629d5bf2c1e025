package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	active := StatusActive
	submitted := StatusSubmitted

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				SessionID:      "sess-1",
				CurrentPageID:  "p1",
				CurrentBlockID: "b1",
				Status:         StatusActive,
				Answers:        Answers{"a": 1},
				History:        []string{"b1"},
			},
			wantDiff: &StateDiff{
				SessionID:      "sess-1",
				CurrentPageID:  &[]string{"p1"}[0],
				CurrentBlockID: &[]string{"b1"}[0],
				Status:         &active,
				Answers:        map[string]any{"a": 1},
				History:        &HistoryDelta{Appended: []string{"b1"}},
			},
		},
		{
			name: "No Changes",
			old: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "b1",
				Status:         StatusActive,
				Answers:        Answers{"a": 1},
				History:        []string{"b1"},
			},
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "b1",
				Status:         StatusActive,
				Answers:        Answers{"a": 1},
				History:        []string{"b1"},
			},
			wantDiff: nil,
		},
		{
			name: "Submitted",
			old: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "b9",
				Status:         StatusActive,
			},
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "b9",
				Status:         StatusSubmitted,
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Status:    &submitted,
			},
		},
		{
			name: "Answers Added & Modified",
			old: &State{
				SessionID: "sess-1",
				Answers:   Answers{"a": 1, "b": "old"},
			},
			new: &State{
				SessionID: "sess-1",
				Answers:   Answers{"a": 1, "b": "new", "c": true},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Answers:   map[string]any{"b": "new", "c": true},
			},
		},
		{
			name: "History Append",
			old: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "b1",
				History:        []string{"b1"},
			},
			new: &State{
				SessionID:      "sess-1",
				CurrentBlockID: "b2",
				History:        []string{"b1", "b2"},
			},
			wantDiff: &StateDiff{
				SessionID:      "sess-1",
				CurrentBlockID: &[]string{"b2"}[0],
				History:        &HistoryDelta{Appended: []string{"b2"}},
			},
		},
		{
			name: "History Truncated (Back)",
			old: &State{
				CurrentBlockID: "b2",
				History:        []string{"b1", "b2"},
			},
			new: &State{
				CurrentBlockID: "b1",
				History:        []string{"b1"},
			},
			wantDiff: &StateDiff{
				CurrentBlockID: &[]string{"b1"}[0],
				History:        &HistoryDelta{Truncated: 1},
			},
		},
		{
			name: "Answer Deletion",
			old: &State{
				Answers: Answers{"a": 1, "b": 2},
			},
			new: &State{
				Answers: Answers{"a": 1},
			},
			wantDiff: &StateDiff{
				Answers: map[string]any{"b": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Answers, tt.wantDiff.Answers) {
				t.Errorf("Diff().Answers = %v, want %v", got.Answers, tt.wantDiff.Answers)
			}
			if !reflect.DeepEqual(got.History, tt.wantDiff.History) {
				t.Errorf("Diff().History = %v, want %v", got.History, tt.wantDiff.History)
			}
			if !equalPtr(got.CurrentBlockID, tt.wantDiff.CurrentBlockID) {
				t.Errorf("Diff().CurrentBlockID = %v, want %v", got.CurrentBlockID, tt.wantDiff.CurrentBlockID)
			}
			if !equalPtr(got.Status, tt.wantDiff.Status) {
				t.Errorf("Diff().Status = %v, want %v", got.Status, tt.wantDiff.Status)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &State{Answers: Answers{"a": 1, "b": 2}}
		s2 := &State{Answers: Answers{"a": 1}}
		diff := Diff(s1, s2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"status"`) {
			t.Errorf("JSON should not contain unchanged status, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
