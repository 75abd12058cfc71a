package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/wikiviewer/pkg/buildinfo"
	apperrors "github.com/matzehuels/wikiviewer/pkg/errors"
	"github.com/matzehuels/wikiviewer/pkg/integrations"
	"github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
)

type articlesResponse struct {
	Articles []wikipedia.Article `json:"articles"`
}

type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if err := apperrors.ValidateKeyword(keyword); err != nil {
		s.writeError(w, r, err)
		return
	}

	articles, err := s.client.Search(r.Context(), keyword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	articles, err := s.client.RandomArticle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, apperrors.New(apperrors.ErrCodeNotFound, "no route for %s", r.URL.Path))
}

// writeError maps err onto a status and error code. Upstream timeouts and
// query failures get a generic message; the cause only goes to the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		s.logger.Debug("Client went away", "request_id", RequestID(r.Context()), "err", err)
		return
	}

	var (
		status int
		body   errorBody
	)
	switch code := apperrors.GetCode(err); {
	case errors.Is(err, integrations.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body = errorBody{Code: apperrors.ErrCodeTimeout, Message: "Wikipedia did not answer in time. Please try again."}
	case errors.Is(err, wikipedia.ErrQuery):
		status = http.StatusBadGateway
		body = errorBody{Code: apperrors.ErrCodeQuery, Message: "Wikipedia could not be queried. Please try again."}
	case code == apperrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
		body = errorBody{Code: code, Message: apperrors.UserMessage(err)}
	case code == apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
		body = errorBody{Code: code, Message: apperrors.UserMessage(err)}
	default:
		status = http.StatusInternalServerError
		body = errorBody{Code: apperrors.ErrCodeInternal, Message: "Internal error."}
	}

	if status >= 500 {
		s.logger.Error("Request failed", "request_id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
