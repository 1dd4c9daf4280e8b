package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"carewatch/internal/access"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

type CapabilitiesResponse struct {
	Role         domain.Role         `json:"role"`
	Capabilities []access.Capability `json:"capabilities"`
}

// Handler reports what the calling role may do, so clients can hide actions
// the server would reject.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/access/capabilities", h.handleCapabilities)
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	role := requestcontext.Role(r.Context())
	caps := access.Capabilities(role)
	if caps == nil {
		caps = []access.Capability{}
	}
	httputil.WriteJSON(w, http.StatusOK, CapabilitiesResponse{Role: role, Capabilities: caps})
}
