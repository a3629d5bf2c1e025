package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	surveyflow "github.com/aretw0/surveyflow"
	render "github.com/aretw0/surveyflow/internal/presentation/graph"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/layout"
	"github.com/aretw0/surveyflow/pkg/schema"
)

// EvaluateRequest is the body of POST /conditions/evaluate.
type EvaluateRequest struct {
	Condition domain.Condition `json:"condition"`
	Answers   domain.Answers   `json:"answers"`
}

// ResolveRequest is the body of POST /navigation/resolve.
type ResolveRequest struct {
	Rules   []domain.NavigationRule `json:"rules"`
	Answers domain.Answers          `json:"answers"`
}

// ResolveResponse carries the destination, null when no rule matched.
type ResolveResponse struct {
	Destination *domain.Destination `json:"destination"`
	RuleIndex   int                 `json:"ruleIndex"`
}

// LayoutRequest is the body of POST /graph/layout.
type LayoutRequest struct {
	Graph    domain.FlowGraph  `json:"graph"`
	Previous *domain.FlowGraph `json:"previous,omitempty"`
	Options  *layout.Options   `json:"options,omitempty"`
}

// CheckRequest is the body of POST /graph/check. Without a graph the survey's
// own graph is checked.
type CheckRequest struct {
	Document json.RawMessage   `json:"document"`
	Graph    *domain.FlowGraph `json:"graph,omitempty"`
}

// RetargetRequest is the body of POST /graph/retarget.
type RetargetRequest struct {
	Document json.RawMessage   `json:"document"`
	Graph    *domain.FlowGraph `json:"graph,omitempty"`
	EdgeID   string            `json:"edgeId"`
	Target   string            `json:"target"`
}

// EditResponse is returned by stateless graph edits.
type EditResponse struct {
	Document domain.Document  `json:"document"`
	Graph    domain.FlowGraph `json:"graph"`
}

// CyclesResponse lists rendered cycles and their node ids.
type CyclesResponse struct {
	Cycles []string   `json:"cycles"`
	IDs    [][]string `json:"ids"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "surveyflow-http",
		"version": strings.TrimSpace(surveyflow.Version),
	})
}

// EvaluateCondition handles POST /conditions/evaluate.
func (s *Server) EvaluateCondition(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"result": s.evaluator.Evaluate(req.Condition, req.Answers)})
}

// ValidateCondition handles POST /conditions/validate.
func (s *Server) ValidateCondition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression string `json:"expression"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	resp := map[string]any{"valid": true}
	if err := condition.Validate(req.Expression); err != nil {
		resp["valid"] = false
		resp["error"] = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ResolveNavigation handles POST /navigation/resolve.
func (s *Server) ResolveNavigation(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp := ResolveResponse{RuleIndex: s.resolver.Match(req.Rules, req.Answers)}
	if resp.RuleIndex >= 0 {
		d := domain.DestinationOf(req.Rules[resp.RuleIndex])
		resp.Destination = &d
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// TreeToGraph handles POST /transform/graph. The body is a survey document;
// ?layout=true positions the nodes.
func (s *Server) TreeToGraph(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.readDocument(w, r, "")
	if !ok {
		return
	}
	g := flow.ToGraph(sv)
	if r.URL.Query().Get("layout") == "true" {
		g = s.runLayout(g, s.layout)
	}
	s.renderGraph(w, r, g, nil)
}

// GraphToTree handles POST /transform/tree.
func (s *Server) GraphToTree(w http.ResponseWriter, r *http.Request) {
	var g domain.FlowGraph
	if !s.decode(w, r, &g) {
		return
	}
	sv, err := flow.FromGraph(g)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sv.Document())
}

// LayoutGraph handles POST /graph/layout. With a previous graph the positions
// are kept unless the edit requires a fresh layout.
func (s *Server) LayoutGraph(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts := s.layout
	if req.Options != nil {
		opts = *req.Options
	}
	if req.Previous != nil {
		s.writeJSON(w, http.StatusOK, layout.Stabilize(*req.Previous, req.Graph, opts))
		return
	}
	s.writeJSON(w, http.StatusOK, s.runLayout(req.Graph, opts))
}

// GraphCycles handles POST /graph/cycles.
func (s *Server) GraphCycles(w http.ResponseWriter, r *http.Request) {
	var g domain.FlowGraph
	if !s.decode(w, r, &g) {
		return
	}
	s.writeJSON(w, http.StatusOK, cyclesOf(g))
}

// CheckGraph handles POST /graph/check.
func (s *Server) CheckGraph(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !s.decode(w, r, &req) {
		return
	}
	sv, err := schema.Decode("", req.Document)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g := flow.ToGraph(sv)
	if req.Graph != nil {
		g = *req.Graph
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"issues": nonNil(flow.Check(sv, g))})
}

// RetargetGraph handles POST /graph/retarget, a stateless edit over a document.
func (s *Server) RetargetGraph(w http.ResponseWriter, r *http.Request) {
	var req RetargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	sv, err := schema.Decode("", req.Document)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g := flow.ToGraph(sv)
	if req.Graph != nil {
		g = *req.Graph
	}
	ng, ns, err := flow.RetargetEdge(g, sv, req.EdgeID, req.Target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EditResponse{Document: ns.Document(), Graph: layout.Stabilize(g, ng, s.layout)})
}

// ExportGraph handles POST /graph/export?format=mermaid|dot.
func (s *Server) ExportGraph(w http.ResponseWriter, r *http.Request) {
	var g domain.FlowGraph
	if !s.decode(w, r, &g) {
		return
	}
	s.renderGraph(w, r, g, nil)
}

// renderGraph writes g as JSON, Mermaid or DOT depending on ?format.
func (s *Server) renderGraph(w http.ResponseWriter, r *http.Request, g domain.FlowGraph, overlay *render.GraphOverlay) {
	q := r.URL.Query()
	switch q.Get("format") {
	case "", "json":
		s.writeJSON(w, http.StatusOK, g)
	case "mermaid":
		s.writeText(w, "text/plain; charset=utf-8", render.GenerateMermaid(g, q.Get("dir"), overlay))
	case "dot":
		out, err := render.GenerateDOT(g, q.Get("dir"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeText(w, "text/vnd.graphviz; charset=utf-8", out)
	default:
		s.badRequest(w, "unknown format %q", q.Get("format"))
	}
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request, source string) (*domain.Survey, bool) {
	data, err := readBody(w, r)
	if err != nil {
		s.badRequest(w, "invalid request body: %v", err)
		return nil, false
	}
	sv, err := schema.Decode(source, data)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sv, true
}

func (s *Server) runLayout(g domain.FlowGraph, opts layout.Options) domain.FlowGraph {
	if s.metrics == nil {
		return layout.Layout(g, opts)
	}
	start := time.Now()
	out := layout.Layout(g, opts)
	s.metrics.ObserveLayout(time.Since(start))
	return out
}

func cyclesOf(g domain.FlowGraph) CyclesResponse {
	return CyclesResponse{Cycles: nonNil(flow.FindCycles(g)), IDs: nonNil(flow.CycleIDs(g))}
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
