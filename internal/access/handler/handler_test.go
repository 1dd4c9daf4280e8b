package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carewatch/internal/access"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/middleware/role"
)

func TestCapabilities(t *testing.T) {
	r := chi.NewRouter()
	r.Use(role.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	New().Register(r)

	tests := []struct {
		header string
		want   CapabilitiesResponse
	}{
		{header: "", want: CapabilitiesResponse{Role: domain.RolePublic, Capabilities: []access.Capability{access.Donate, access.BookVisit}}},
		{header: "inspector", want: CapabilitiesResponse{Role: domain.RoleInspector, Capabilities: []access.Capability{access.ConductInspection, access.ViewInspections}}},
		{header: "government", want: CapabilitiesResponse{Role: domain.RoleGovernmentAuthority, Capabilities: []access.Capability{access.ViewFundDetail}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.want.Role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/access/capabilities", nil)
			if tt.header != "" {
				req.Header.Set(role.Header, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var got CapabilitiesResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown role is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/access/capabilities", nil)
		req.Header.Set(role.Header, "superuser")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
