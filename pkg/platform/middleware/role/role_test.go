package role

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"carewatch/pkg/domain"
	"carewatch/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantRole domain.Role
	}{
		{"absent header defaults to public", "", http.StatusNoContent, domain.RolePublic},
		{"institution admin", "institution_admin", http.StatusNoContent, domain.RoleInstitutionAdmin},
		{"government", "government", http.StatusNoContent, domain.RoleGovernmentAuthority},
		{"unknown role rejected", "root", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Role
			h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = requestcontext.Role(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(Header, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRole, got)
		})
	}
}
