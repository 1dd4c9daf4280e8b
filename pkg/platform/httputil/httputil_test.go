package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "carewatch/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("payload too large carries the configured limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "proof exceeds limit").WithMeta("max_bytes", 5<<20))

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
		}

		var body ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "payload_too_large" {
			t.Fatalf("expected error code payload_too_large, got %q", body.Error)
		}
		if body.Details["max_bytes"] != float64(5<<20) {
			t.Fatalf("expected max_bytes detail, got %v", body.Details)
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:  http.StatusBadRequest,
		dErrors.CodeForbidden:   http.StatusForbidden,
		dErrors.CodeNotFound:    http.StatusNotFound,
		dErrors.CodeConflict:    http.StatusConflict,
		dErrors.CodeUnavailable: http.StatusGatewayTimeout,
		dErrors.CodeRateLimited: http.StatusTooManyRequests,
		dErrors.Code("unknown"): http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	cases := []struct {
		name    string
		payload string
		code    dErrors.Code
	}{
		{"empty body", "", dErrors.CodeBadRequest},
		{"malformed", "{", dErrors.CodeBadRequest},
		{"unknown field", `{"name":"a","extra":1}`, dErrors.CodeBadRequest},
		{"too large", `{"name":"` + strings.Repeat("a", MaxJSONBody) + `"}`, dErrors.CodePayloadTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.payload))
			var v body
			err := DecodeJSON(httptest.NewRecorder(), r, &v)
			if !dErrors.HasCode(err, tc.code) {
				t.Fatalf("expected code %s, got %v", tc.code, err)
			}
		})
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Asha"}`))
		var v body
		if err := DecodeJSON(httptest.NewRecorder(), r, &v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Name != "Asha" {
			t.Fatalf("expected Asha, got %q", v.Name)
		}
	})
}
