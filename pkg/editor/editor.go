package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/history"
	"github.com/aretw0/surveyflow/pkg/layout"
)

// ErrNothingToUndo is returned by Undo at the oldest retained snapshot.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by Redo when no undone edit remains.
var ErrNothingToRedo = errors.New("nothing to redo")

// Editor keeps a survey and its laid out flow graph in sync while edits are
// applied through the graph. Every accepted edit is recorded in an undo history.
// Editor is safe for concurrent use.
type Editor struct {
	mu      sync.Mutex
	survey  *domain.Survey
	graph   domain.FlowGraph
	history *history.History
	surveys map[string]*domain.Survey // by snapshot id
	layout  layout.Options
	logger  *slog.Logger
	observe func(time.Duration)
}

// Option configures an Editor.
type Option func(*Editor)

// WithLayout sets the layout options used for new and changed graphs.
func WithLayout(opts layout.Options) Option {
	return func(e *Editor) {
		e.layout = opts
	}
}

// WithHistory replaces the default undo history.
func WithHistory(h *history.History) Option {
	return func(e *Editor) {
		if h != nil {
			e.history = h
		}
	}
}

// WithLogger sets the logger used to trace edits.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLayoutObserver is called with the duration of every layout pass.
func WithLayoutObserver(fn func(time.Duration)) Option {
	return func(e *Editor) {
		e.observe = fn
	}
}

// State is a consistent view of the editor.
type State struct {
	Survey  *domain.Survey   `json:"-"`
	Graph   domain.FlowGraph `json:"graph"`
	CanUndo bool             `json:"canUndo"`
	CanRedo bool             `json:"canRedo"`
	Labels  []string         `json:"history"`
}

// New opens an editor on a copy of s. The initial graph is laid out and
// recorded as the first history entry.
func New(s *domain.Survey, opts ...Option) *Editor {
	e := &Editor{
		layout: layout.DefaultOptions(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = history.New(history.DefaultCapacity)
	}

	e.surveys = make(map[string]*domain.Survey)
	e.survey = s.Clone()
	e.graph = e.runLayout(flow.ToGraph(e.survey))
	e.record("open")
	return e
}

// State returns copies of the current survey and graph.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	return State{
		Survey:  e.survey.Clone(),
		Graph:   e.graph.Clone(),
		CanUndo: e.history.CanUndo(),
		CanRedo: e.history.CanRedo(),
		Labels:  e.history.Labels(),
	}
}

// Retarget points a conditional edge at another node.
func (e *Editor) Retarget(edgeID, targetNodeID string) (State, error) {
	return e.apply(fmt.Sprintf("retarget %s -> %s", edgeID, targetNodeID), func(g domain.FlowGraph, s *domain.Survey) (domain.FlowGraph, *domain.Survey, error) {
		return flow.RetargetEdge(g, s, edgeID, targetNodeID)
	})
}

// Connect adds a rule from a block to a node.
func (e *Editor) Connect(sourceID, targetNodeID string, cond domain.Condition, isDefault bool) (State, error) {
	return e.apply(fmt.Sprintf("connect %s -> %s", sourceID, targetNodeID), func(g domain.FlowGraph, s *domain.Survey) (domain.FlowGraph, *domain.Survey, error) {
		return flow.ConnectEdge(g, s, sourceID, targetNodeID, cond, isDefault)
	})
}

// Remove deletes a conditional edge and its rule.
func (e *Editor) Remove(edgeID string) (State, error) {
	return e.apply("remove "+edgeID, func(g domain.FlowGraph, s *domain.Survey) (domain.FlowGraph, *domain.Survey, error) {
		return flow.RemoveEdge(g, s, edgeID)
	})
}

// Relayout discards the current positions and lays the graph out again.
func (e *Editor) Relayout() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.graph = e.runLayout(e.graph)
	e.record("layout")
	return e.stateLocked()
}

// Undo restores the previous snapshot together with the survey it was taken
// from, so rules the graph cannot show survive.
func (e *Editor) Undo() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.history.Undo()
	if !ok {
		return e.stateLocked(), ErrNothingToUndo
	}
	st, err := e.restore(snap)
	if err != nil {
		e.history.Redo()
		return e.stateLocked(), err
	}
	return st, nil
}

// Redo reapplies the last undone snapshot.
func (e *Editor) Redo() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.history.Redo()
	if !ok {
		return e.stateLocked(), ErrNothingToRedo
	}
	st, err := e.restore(snap)
	if err != nil {
		e.history.Undo()
		return e.stateLocked(), err
	}
	return st, nil
}

// Check reports inconsistencies between the survey and the graph.
func (e *Editor) Check() []flow.Issue {
	e.mu.Lock()
	defer e.mu.Unlock()
	return flow.Check(e.survey, e.graph)
}

type editFunc func(domain.FlowGraph, *domain.Survey) (domain.FlowGraph, *domain.Survey, error)

func (e *Editor) apply(label string, fn editFunc) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, s, err := fn(e.graph, e.survey)
	if err != nil {
		e.logger.Debug("edit rejected", "edit", label, "err", err)
		return e.stateLocked(), err
	}

	start := time.Now()
	e.graph = layout.Stabilize(e.graph, g, e.layout)
	if e.observe != nil {
		e.observe(time.Since(start))
	}
	e.survey = s
	e.record(label)
	e.logger.Debug("edit applied", "edit", label, "edges", len(e.graph.Edges))
	return e.stateLocked(), nil
}

// record pushes the current graph and keeps a copy of the survey for it.
// Surveys of evicted or discarded snapshots are dropped.
func (e *Editor) record(label string) {
	snap := e.history.Push(e.graph, label)
	kept := make(map[string]*domain.Survey, len(e.surveys)+1)
	for _, id := range e.history.IDs() {
		if s, ok := e.surveys[id]; ok {
			kept[id] = s
		}
	}
	kept[snap.ID] = e.survey.Clone()
	e.surveys = kept
}

func (e *Editor) restore(snap history.Snapshot) (State, error) {
	var s *domain.Survey
	if saved, ok := e.surveys[snap.ID]; ok {
		s = saved.Clone()
	} else {
		// Snapshots pushed outside the editor carry no survey.
		rebuilt, err := flow.FromGraph(snap.Graph)
		if err != nil {
			return e.stateLocked(), fmt.Errorf("restore %s: %w", snap.Label, err)
		}
		s = rebuilt
	}
	e.graph = snap.Graph
	e.survey = s
	e.logger.Debug("snapshot restored", "label", snap.Label, "id", snap.ID)
	return e.stateLocked(), nil
}

func (e *Editor) runLayout(g domain.FlowGraph) domain.FlowGraph {
	start := time.Now()
	out := layout.Layout(g, e.layout)
	if e.observe != nil {
		e.observe(time.Since(start))
	}
	return out
}
