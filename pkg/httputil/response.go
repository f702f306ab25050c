package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/jubmeng/rainbow/pkg/errors"
	"github.com/jubmeng/rainbow/pkg/logger"
	"github.com/jubmeng/rainbow/pkg/validator"
)

// ErrorEnvelope is the body of every error response: {"error": {...}}.
type ErrorEnvelope struct {
	Error *ErrorResponse `json:"error"`
}

// ErrorResponse describes one failed request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status code and writes the error envelope.
// Validation failures carry per-field messages. Server-side failures are
// logged with the request-scoped logger, or fallback when none is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logInternal(r, err, fallback)
		}
		WriteJSON(w, appErr.Status, ErrorEnvelope{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{
			Error: &ErrorResponse{
				Code:      "VALIDATION_ERROR",
				Message:   "request validation failed",
				Fields:    valErr.Fields(),
				RequestID: requestID,
			},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch status {
	case http.StatusNotFound:
		code, message = "NOT_FOUND", "resource not found"
	case http.StatusBadRequest:
		code, message = "INVALID_INPUT", err.Error()
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			code, message = "ALREADY_EXISTS", "resource already exists"
		}
	case http.StatusUnauthorized:
		code, message = "UNAUTHORIZED", "unauthorized"
	case http.StatusForbidden:
		code, message = "FORBIDDEN", "forbidden"
	case http.StatusConflict:
		code, message = "CONFLICT", "conflict"
	case http.StatusServiceUnavailable:
		code, message = "SERVICE_UNAVAILABLE", "service unavailable"
	default:
		logInternal(r, err, fallback)
	}

	WriteJSON(w, status, ErrorEnvelope{
		Error: &ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

// WriteBadRequest writes a 400 INVALID_INPUT error with the given message.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{
		Error: &ErrorResponse{
			Code:      "INVALID_INPUT",
			Message:   message,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

func logInternal(r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// ParseUUID parses a path parameter as a UUID. On failure it writes a 400
// INVALID_PARAMETER response and returns false so the caller can return early.
func ParseUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{
			Error: &ErrorResponse{
				Code:      "INVALID_PARAMETER",
				Message:   "invalid UUID: " + param,
				RequestID: logger.CorrelationIDFromContext(r.Context()),
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
