// Package editor applies graph edits to a survey, keeping the flow graph laid
// out and recording every accepted edit in a bounded undo history.
package editor
