package mcp

import (
	"context"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

type runtimeStep struct {
	survey  *domain.Survey
	runtime ports.Runtime
	state   *domain.State
}

// step applies fn to a stored session under its lock and saves the result.
func (s *Server) step(ctx context.Context, sessionID string, fn func(runtimeStep) (*domain.State, error)) (SessionResult, error) {
	var sv *domain.Survey
	next, err := s.sessions.Update(ctx, sessionID, func(state *domain.State) (*domain.State, error) {
		var err error
		sv, err = s.loader.Load(ctx, state.SurveyID)
		if err != nil {
			return nil, err
		}
		return fn(runtimeStep{survey: sv, runtime: s.runtimeFor(sv), state: state})
	})
	if err != nil {
		return SessionResult{}, err
	}
	return view(sv, next), nil
}

func view(sv *domain.Survey, state *domain.State) SessionResult {
	res := SessionResult{State: state}
	if state.Status == domain.StatusActive {
		if b, ok := sv.Block(state.CurrentBlockID); ok {
			res.Block = b
		}
	}
	return res
}
