package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/comictools/pkg/errors"
)

// errorBody is the JSON error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusByCode maps error codes to HTTP status codes.
var statusByCode = map[errors.Code]int{
	errors.ErrCodeInvalidInput:    http.StatusBadRequest,
	errors.ErrCodeInvalidMargins:  http.StatusBadRequest,
	errors.ErrCodeInvalidScale:    http.StatusBadRequest,
	errors.ErrCodeInvalidFormat:   http.StatusBadRequest,
	errors.ErrCodeInvalidLayer:    http.StatusBadRequest,
	errors.ErrCodeInvalidPath:     http.StatusBadRequest,
	errors.ErrCodeNothingSelect:   http.StatusBadRequest,
	errors.ErrCodeFileNotFound:    http.StatusNotFound,
	errors.ErrCodeLayerNotFound:   http.StatusNotFound,
	errors.ErrCodeUnsupported:     http.StatusBadRequest,
	errors.ErrCodeToolNotFound:    http.StatusServiceUnavailable,
	errors.ErrCodeToolFailed:      http.StatusBadGateway,
	errors.ErrCodeOperationFailed: http.StatusInternalServerError,
	errors.ErrCodeInternal:        http.StatusInternalServerError,
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	if status, ok := statusByCode[errors.GetCode(err)]; ok {
		return status
	}
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// readError classifies a failure to read the request body.
func readError(err error) error {
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return err
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
}

// writeError logs err and writes it as a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
		if status == http.StatusRequestEntityTooLarge {
			code = errors.ErrCodeInvalidInput
		}
	}

	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()), "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Debug("request rejected", "error", err)
	}

	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    code,
		Message: errors.UserMessage(err),
	}})
}
