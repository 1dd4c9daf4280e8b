// Package role resolves the caller-asserted role for each request.
//
// The role is not authenticated: it is a per-request claim carried in the
// X-Role header and passed explicitly to every service operation, where the
// access policy decides what it may do.
package role

import (
	"log/slog"
	"net/http"

	"carewatch/pkg/domain"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

const Header = "X-Role"

// Default is assumed when the header is absent.
const Default = domain.RolePublic

// Middleware stores the parsed role in the request context. A header naming
// an unknown role is rejected with 400.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(Header)
			if raw == "" {
				next.ServeHTTP(w, r.WithContext(requestcontext.WithRole(ctx, Default)))
				return
			}
			parsed, err := domain.ParseRole(raw)
			if err != nil {
				logger.WarnContext(ctx, "rejected unknown role",
					"request_id", requestcontext.RequestID(ctx),
					"role", raw,
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithRole(ctx, parsed)))
		})
	}
}
