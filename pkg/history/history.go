// Package history keeps a bounded undo/redo log of flow graph snapshots.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 50

// Snapshot is an immutable copy of the graph after an edit.
type Snapshot struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	CreatedAt time.Time        `json:"created_at"`
	Graph     domain.FlowGraph `json:"graph"`
}

func (s Snapshot) clone() Snapshot {
	s.Graph = s.Graph.Clone()
	return s
}

// History is a ring buffer of snapshots with a cursor. Pushing after an undo
// discards the redo branch; once full, the oldest snapshot is evicted.
type History struct {
	mu    sync.Mutex
	buf   []Snapshot
	start int // index of the oldest entry
	size  int
	cur   int // offset of the current entry from start, -1 when empty
	now   func() time.Time
}

// New creates a History holding at most capacity snapshots.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{buf: make([]Snapshot, capacity), cur: -1, now: time.Now}
}

// Push records a snapshot of g and makes it current.
func (h *History) Push(g domain.FlowGraph, label string) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := Snapshot{ID: uuid.NewString(), Label: label, CreatedAt: h.now(), Graph: g.Clone()}

	// Drop the redo branch.
	h.size = h.cur + 1

	if h.size == len(h.buf) {
		h.start = (h.start + 1) % len(h.buf)
		h.size--
	}
	h.buf[(h.start+h.size)%len(h.buf)] = snap
	h.size++
	h.cur = h.size - 1
	return snap.clone()
}

// Current returns the current snapshot.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur < 0 {
		return Snapshot{}, false
	}
	return h.at(h.cur).clone(), true
}

// Undo moves the cursor back and returns the snapshot now current.
func (h *History) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur <= 0 {
		return Snapshot{}, false
	}
	h.cur--
	return h.at(h.cur).clone(), true
}

// Redo moves the cursor forward and returns the snapshot now current.
func (h *History) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur+1 >= h.size {
		return Snapshot{}, false
	}
	h.cur++
	return h.at(h.cur).clone(), true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cur+1 < h.size
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Labels lists the retained snapshot labels from oldest to newest.
func (h *History) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.at(i).Label
	}
	return out
}

// IDs lists the retained snapshot ids from oldest to newest.
func (h *History) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.at(i).ID
	}
	return out
}

func (h *History) at(offset int) Snapshot {
	return h.buf[(h.start+offset)%len(h.buf)]
}
