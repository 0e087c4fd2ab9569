package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
)

var (
	errRouteNotFound    = apperrors.New(apperrors.ErrCodeNotFound, "no such route")
	errMethodNotAllowed = apperrors.New(apperrors.ErrCodeInvalidInput, "method not allowed")
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

// respondError writes err as an [ErrorResponse]. Errors without an
// application code are logged and reported as INTERNAL_ERROR so their text
// never reaches the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)

	var rl *apperrors.RateLimitedError
	if errors.As(err, &rl) {
		if rl.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		}
		s.respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Code:    string(apperrors.ErrCodeRateLimited),
			Message: apperrors.UserMessage(apperrors.New(apperrors.ErrCodeRateLimited, "%s", rl.Message)),
		})
		return
	}

	code := apperrors.GetCode(err)
	if code == "" {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err)
		s.respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(apperrors.ErrCodeInternal),
			Message: "internal server error",
		})
		return
	}
	if code == apperrors.ErrCodeInternal {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}

	status := apperrors.HTTPStatus(err)
	if errors.Is(err, errMethodNotAllowed) {
		status = http.StatusMethodNotAllowed
	}
	s.respondJSON(w, status, ErrorResponse{
		Code:    string(code),
		Message: apperrors.UserMessage(err),
	})
}

// classify attaches application codes to well-known sentinel errors.
func classify(err error) error {
	if apperrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, journal.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodeNotFound, err, "entry not found")
	case errors.Is(err, journal.ErrExists):
		return apperrors.Wrap(apperrors.ErrCodeSaveFailed, err, "entry already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "request timed out")
	}
	return err
}
