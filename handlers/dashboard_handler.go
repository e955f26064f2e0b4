package handlers

import (
	"net/http"

	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/middleware"
	"github.com/upb/terrace/utils"
)

// PrincipalResponse describes the principal attached to a request
type PrincipalResponse struct {
	Message       string   `json:"message"`
	Authenticated bool     `json:"authenticated"`
	Subject       string   `json:"subject,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	Admin         bool     `json:"admin"`
}

// DashboardHandler serves the home, dashboard and admin pages
type DashboardHandler struct{}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// HandleHome handles GET /. It is public and reports whether the caller
// presented a valid token.
func (h *DashboardHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, describe("Welcome to terrace", middleware.GetPrincipalFromContext(r.Context())))
}

// HandleDashboard handles GET /dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if p == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}
	_ = utils.WriteOK(w, describe("Dashboard", p))
}

// HandleAdmin handles GET /admin
func (h *DashboardHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipalFromContext(r.Context())
	if p == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}
	if !p.HasRole(auth.RoleAdmin) {
		_ = utils.WriteForbidden(w, "Insufficient permissions")
		return
	}
	_ = utils.WriteOK(w, describe("Admin area", p))
}

func describe(message string, p *auth.Principal) PrincipalResponse {
	resp := PrincipalResponse{Message: message}
	if p == nil {
		return resp
	}
	resp.Authenticated = true
	resp.Subject = p.Subject
	resp.Roles = p.Roles
	resp.Admin = p.HasRole(auth.RoleAdmin)
	return resp
}
