package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/terrace/app"
	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/middleware"
	"github.com/upb/terrace/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", middleware.TokenErrorHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Authentication then access control, for every route below
	r.Use(deps.AuthMiddleware.Authenticate)
	r.Use(deps.AccessMiddleware.Enforce)

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	r.Get("/", deps.DashboardHandler.HandleHome)

	// Token endpoints
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.Post("/refresh", deps.AuthHandler.HandleRefresh)
		r.Get("/validate", deps.AuthHandler.HandleValidate)
		r.Get("/me", deps.AuthHandler.HandleMe)
		r.Post("/logout", deps.AuthHandler.HandleLogout)
		r.Get("/logout", deps.AuthHandler.HandleLogout)
	})

	r.With(deps.AuthMiddleware.RequireAuth).Get("/dashboard", deps.DashboardHandler.HandleDashboard)

	r.Route("/admin", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireRole(auth.RoleAdmin))
		r.Get("/", deps.DashboardHandler.HandleAdmin)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
