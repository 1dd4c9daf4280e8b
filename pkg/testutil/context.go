package testutil

import (
	"net/http"

	"carewatch/pkg/domain"
	"carewatch/pkg/platform/middleware/role"
)

// WithRole sets the role header the role middleware reads. An empty role
// leaves the caller public.
func WithRole(req *http.Request, r domain.Role) *http.Request {
	if r == "" {
		req.Header.Del(role.Header)
		return req
	}
	req.Header.Set(role.Header, string(r))
	return req
}
