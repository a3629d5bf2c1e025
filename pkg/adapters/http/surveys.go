package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/editor"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/history"
)

// EditorResponse is the editor state returned by every /editor route.
type EditorResponse struct {
	editor.State
	Document domain.Document `json:"document"`
}

// ConnectRequest is the body of POST /surveys/{id}/editor/connect.
type ConnectRequest struct {
	Source    string           `json:"source"`
	Target    string           `json:"target"`
	Condition domain.Condition `json:"condition"`
	IsDefault bool             `json:"isDefault"`
}

// ListSurveys handles GET /surveys.
func (s *Server) ListSurveys(w http.ResponseWriter, r *http.Request) {
	ids, err := s.loader.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"surveys": nonNil(ids)})
}

// GetSurvey handles GET /surveys/{surveyID} and returns the tree document.
func (s *Server) GetSurvey(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.survey(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sv.Document())
}

// GetSurveyGraph handles GET /surveys/{surveyID}/graph.
func (s *Server) GetSurveyGraph(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.survey(w, r)
	if !ok {
		return
	}
	g := flow.ToGraph(sv)
	if r.URL.Query().Get("layout") != "false" {
		g = s.runLayout(g, s.layout)
	}
	s.renderGraph(w, r, g, nil)
}

// GetSurveyCycles handles GET /surveys/{surveyID}/cycles.
func (s *Server) GetSurveyCycles(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.survey(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, cyclesOf(flow.ToGraph(sv)))
}

// GetSurveyCheck handles GET /surveys/{surveyID}/check.
func (s *Server) GetSurveyCheck(w http.ResponseWriter, r *http.Request) {
	sv, ok := s.survey(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"issues": nonNil(flow.Check(sv, flow.ToGraph(sv)))})
}

// GetEditor handles GET /surveys/{surveyID}/editor.
func (s *Server) GetEditor(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	s.writeEditor(w, ed.State(), nil)
}

// EditorRetarget handles POST /surveys/{surveyID}/editor/retarget.
func (s *Server) EditorRetarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EdgeID string `json:"edgeId"`
		Target string `json:"target"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	st, err := ed.Retarget(req.EdgeID, req.Target)
	s.writeEditor(w, st, err)
}

// EditorConnect handles POST /surveys/{surveyID}/editor/connect.
func (s *Server) EditorConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !s.decode(w, r, &req) {
		return
	}
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	st, err := ed.Connect(req.Source, req.Target, req.Condition, req.IsDefault)
	s.writeEditor(w, st, err)
}

// EditorRemove handles POST /surveys/{surveyID}/editor/remove.
func (s *Server) EditorRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EdgeID string `json:"edgeId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	st, err := ed.Remove(req.EdgeID)
	s.writeEditor(w, st, err)
}

// EditorLayout handles POST /surveys/{surveyID}/editor/layout.
func (s *Server) EditorLayout(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	s.writeEditor(w, ed.Relayout(), nil)
}

// EditorUndo handles POST /surveys/{surveyID}/editor/undo.
func (s *Server) EditorUndo(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	st, err := ed.Undo()
	s.writeEditor(w, st, err)
}

// EditorRedo handles POST /surveys/{surveyID}/editor/redo.
func (s *Server) EditorRedo(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editor(w, r)
	if !ok {
		return
	}
	st, err := ed.Redo()
	s.writeEditor(w, st, err)
}

func (s *Server) writeEditor(w http.ResponseWriter, st editor.State, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EditorResponse{State: st, Document: st.Survey.Document()})
}

func (s *Server) survey(w http.ResponseWriter, r *http.Request) (*domain.Survey, bool) {
	sv, err := s.loadSurvey(r.Context(), chi.URLParam(r, "surveyID"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sv, true
}

func (s *Server) loadSurvey(ctx context.Context, id string) (*domain.Survey, error) {
	return s.loader.Load(ctx, id)
}

// editor returns the editor of the survey in the URL, opening it on first use.
func (s *Server) editor(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	id := chi.URLParam(r, "surveyID")

	s.mu.Lock()
	defer s.mu.Unlock()
	if ed, ok := s.editors[id]; ok {
		return ed, true
	}

	sv, err := s.loadSurvey(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	opts := []editor.Option{
		editor.WithLayout(s.layout),
		editor.WithHistory(history.New(s.capacity)),
		editor.WithLogger(s.logger.With("survey", id)),
	}
	if s.metrics != nil {
		opts = append(opts, editor.WithLayoutObserver(s.metrics.ObserveLayout))
	}
	ed := editor.New(sv, opts...)
	s.editors[id] = ed
	return ed, true
}
