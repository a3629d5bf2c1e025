package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/editor"
	"github.com/aretw0/surveyflow/pkg/schema"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		s.logger.Error("response write failed", "err", err)
	}
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var docErr *domain.DocumentError
	var answerErr *schema.AnswerValidationError
	switch {
	case errors.As(err, &docErr):
		status = http.StatusBadRequest
		resp.Reasons = docErr.Reasons
	case errors.As(err, &answerErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSurveyNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrBlockNotFound),
		errors.Is(err, domain.ErrPageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStructuralEdge),
		errors.Is(err, domain.ErrInvalidRuleSource),
		errors.Is(err, domain.ErrInvalidTarget):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionSubmitted),
		errors.Is(err, domain.ErrNoPreviousBlock),
		errors.Is(err, editor.ErrNothingToUndo),
		errors.Is(err, editor.ErrNothingToRedo):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) badRequest(w http.ResponseWriter, format string, args ...any) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// decode reads a JSON body into v. It writes the error response itself and
// reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.badRequest(w, "invalid request body: %v", err)
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
