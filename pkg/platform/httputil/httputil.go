// Package httputil centralizes JSON response writing and request decoding for
// HTTP handlers. All handlers use WriteError so domain error codes map onto
// one consistent envelope: {"error": code, "error_description": message}.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "conforma/pkg/domain-errors"
)

// errorCodeNames maps domain error codes onto their wire names.
var errorCodeNames = map[dErrors.Code]string{
	dErrors.CodeValidation:         "validation_error",
	dErrors.CodeBadRequest:         "bad_request",
	dErrors.CodeInvalidInput:       "invalid_input",
	dErrors.CodeNotFound:           "not_found",
	dErrors.CodeConflict:           "conflict",
	dErrors.CodeInvariantViolation: "invalid_state",
	dErrors.CodeForbidden:          "forbidden",
	dErrors.CodeUnauthorized:       "unauthorized",
	dErrors.CodeTimeout:            "timeout",
	dErrors.CodeInternal:           "internal_error",
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so infrastructure details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""

	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	name, ok := errorCodeNames[code]
	if !ok {
		name = errorCodeNames[dErrors.CodeInternal]
	}

	resp := errorResponse{Error: name}
	if code != dErrors.CodeInternal && code != dErrors.CodeTimeout {
		resp.ErrorDescription = message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteNoContent writes a 204 response with no body.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Normalizer is implemented by request DTOs that canonicalize their fields
// (trim whitespace, dedupe lists) before validation.
type Normalizer interface {
	Normalize()
}

// Validator is implemented by request DTOs that validate and parse their
// fields. Validate runs after Normalize.
type Validator interface {
	Validate() error
}

// DecodeAndPrepare decodes the request body into T, then runs Normalize and
// Validate when the DTO implements them. On any failure it writes the error
// response and returns ok=false; the handler should simply return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	if n, ok := any(&req).(Normalizer); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			if logger != nil {
				logger.WarnContext(ctx, "request validation failed",
					"request_id", requestID,
					"error", err,
				)
			}
			WriteError(w, err)
			return nil, false
		}
	}

	return &req, true
}
