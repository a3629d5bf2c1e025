package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/surveyflow"
	render "github.com/aretw0/surveyflow/internal/presentation/graph"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/flow"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/schema"
)

// SessionResponse is a session state together with the block it sits on.
type SessionResponse struct {
	State *domain.State `json:"state"`
	Block *domain.Block `json:"block,omitempty"`
}

// AnswerRequest is the body of POST /sessions/{id}/answer. Value is stored as
// given; Raw is parsed for the block type first, the way a terminal prompt does.
type AnswerRequest struct {
	Value    any     `json:"value"`
	Raw      *string `json:"raw,omitempty"`
	Navigate bool    `json:"navigate,omitempty"`
}

// StartSession handles POST /surveys/{surveyID}/sessions. An existing session
// with the same id is returned unchanged.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	data, err := readBody(w, r)
	if err != nil {
		s.badRequest(w, "invalid request body: %v", err)
		return
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			s.badRequest(w, "invalid request body: %v", err)
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	sv, ok := s.survey(w, r)
	if !ok {
		return
	}
	rt := s.runtimes(sv)
	state, err := s.sessions.LoadOrStart(r.Context(), req.SessionID, rt.Start)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if state.SurveyID != sv.UUID {
		s.writeError(w, fmt.Errorf("session %s belongs to survey %s: %w", req.SessionID, state.SurveyID, domain.ErrSessionNotFound))
		return
	}
	s.broadcast(nil, state)
	s.writeJSON(w, http.StatusCreated, s.view(sv, state))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": nonNil(ids)})
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sv, err := s.loadSurvey(r.Context(), state.SurveyID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sv, state))
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnswerSession handles POST /sessions/{sessionID}/answer.
func (s *Server) AnswerSession(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.step(w, r, func(ctx context.Context, rt ports.Runtime, state *domain.State) (*domain.State, error) {
		value := req.Value
		if req.Raw != nil {
			block, ok := rt.Survey().Block(state.CurrentBlockID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrBlockNotFound, state.CurrentBlockID)
			}
			raw, err := surveyflow.SanitizeInput(*req.Raw)
			if err != nil {
				return nil, &schema.AnswerValidationError{
					BlockID: block.UUID, FieldName: block.FieldName, BlockType: block.Type, Err: err,
				}
			}
			parsed, err := schema.ParseAnswer(block, raw)
			if err != nil {
				return nil, err
			}
			value = parsed
		}
		next, err := rt.Answer(ctx, state, value)
		if err != nil || !req.Navigate {
			return next, err
		}
		return rt.Navigate(ctx, next)
	})
}

// NavigateSession handles POST /sessions/{sessionID}/navigate.
func (s *Server) NavigateSession(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, func(ctx context.Context, rt ports.Runtime, state *domain.State) (*domain.State, error) {
		return rt.Navigate(ctx, state)
	})
}

// SubmitPageSession handles POST /sessions/{sessionID}/submit-page.
func (s *Server) SubmitPageSession(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, func(ctx context.Context, rt ports.Runtime, state *domain.State) (*domain.State, error) {
		return rt.SubmitPage(ctx, state)
	})
}

// BackSession handles POST /sessions/{sessionID}/back.
func (s *Server) BackSession(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, func(ctx context.Context, rt ports.Runtime, state *domain.State) (*domain.State, error) {
		return rt.Back(ctx, state)
	})
}

// GetSessionGraph handles GET /sessions/{sessionID}/graph, highlighting the
// visited blocks and the current one.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sv, err := s.loadSurvey(r.Context(), state.SurveyID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	overlay := &render.GraphOverlay{VisitedNodes: state.History, CurrentNode: state.CurrentBlockID}
	if state.Status == domain.StatusSubmitted {
		overlay.CurrentNode = domain.SubmitNodeID
	}
	s.renderGraph(w, r, s.runLayout(flow.ToGraph(sv), s.layout), overlay)
}

type stepFunc func(context.Context, ports.Runtime, *domain.State) (*domain.State, error)

// step runs fn against the stored session under the session lock and saves
// the result. Subscribers receive the diff.
func (s *Server) step(w http.ResponseWriter, r *http.Request, fn stepFunc) {
	sessionID := chi.URLParam(r, "sessionID")
	var (
		prev *domain.State
		sv   *domain.Survey
	)
	next, err := s.sessions.Update(r.Context(), sessionID, func(state *domain.State) (*domain.State, error) {
		var err error
		sv, err = s.loadSurvey(r.Context(), state.SurveyID)
		if err != nil {
			return nil, err
		}
		prev = state
		return fn(r.Context(), s.runtimes(sv), state)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcast(prev, next)
	s.writeJSON(w, http.StatusOK, s.view(sv, next))
}

func (s *Server) view(sv *domain.Survey, state *domain.State) SessionResponse {
	resp := SessionResponse{State: state}
	if state.Status == domain.StatusActive {
		if b, ok := sv.Block(state.CurrentBlockID); ok {
			resp.Block = b
		}
	}
	return resp
}

func (s *Server) broadcast(prev, next *domain.State) {
	diff := domain.Diff(prev, next)
	if diff == nil {
		s.logger.Debug("no diff to broadcast", "session_id", next.SessionID)
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		s.logger.Warn("diff encode failed", "session_id", next.SessionID, "err", err)
		return
	}
	s.Streams.Broadcast(next.SessionID, string(payload))
}
