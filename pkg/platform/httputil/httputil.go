// Package httputil writes JSON responses and maps domain error codes to HTTP statuses.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "carewatch/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its status and envelope.
// Internal errors never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		if de, ok := dErrors.As(err); ok {
			resp.ErrorDescription = de.Message
			resp.Details = de.Meta
		}
	}
	WriteJSON(w, StatusFor(code), resp)
}

// StatusFor maps a domain code onto an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MaxJSONBody bounds request bodies read by DecodeJSON.
const MaxJSONBody = 1 << 20

// DecodeJSON decodes a single JSON object from the request body into v.
// Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.Wrap(err, dErrors.CodePayloadTooLarge, "request body too large")
		}
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return nil
}
