/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: Structured request logging (httplog, ECS schema)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CleanPath:     Collapses double slashes
  5. CORS:          Cross-origin requests for the frontend
  6. Heartbeat:     GET /health for load balancers

ROUTE GROUPS:
  /api/users/*          Directory, dashboards, manager/team lookups
  /api/balances/*       Balances and their journal
  /api/applications/*   Submit, validate and transition leave applications
  /api/calendar/*       Team calendar and conflict view
  /api/holidays         Public holidays
  /api/manager/queue    Manager dashboard
  /api/assignments/*    Manager to employee assignments
  /api/audit            Audit log
  /api/reconciliation   Ledger drift check
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. Actor IDs are taken from request bodies.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewLogger returns a JSON slog logger whose attribute names follow the ECS
// schema, so application and request logs share one shape.
func NewLogger(out io.Writer, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	}))
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *slog.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Heartbeat("/health"))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateProfile)
			r.Get("/{id}/dashboard", h.GetDashboard)
			r.Get("/{id}/manager", h.GetManager)
			r.Get("/{id}/team", h.GetTeam)
		})

		// Balance routes
		r.Route("/balances", func(r chi.Router) {
			r.Get("/{id}", h.GetBalance)
			r.Get("/{id}/history", h.GetTransactions)
		})

		// Application routes
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.ListApplications)
			r.Post("/", h.SubmitApplication)
			r.Post("/validate", h.ValidateApplication)
			r.Get("/{id}", h.GetApplication)
			r.Post("/{id}/approve", h.ApproveApplication)
			r.Post("/{id}/reject", h.RejectApplication)
			r.Post("/{id}/cancel", h.CancelApplication)
			r.Post("/{id}/recall", h.RecallApplication)
			r.Get("/{id}/reapply", h.ReapplyApplication)
		})

		// Calendar routes
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", h.GetTeamCalendar)
			r.Get("/conflicts", h.GetConflicts)
		})
		r.Get("/holidays", h.ListHolidays)

		// Manager routes
		r.Get("/manager/queue", h.GetManagerQueue)
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Put("/{managerId}", h.AssignTeam)
		})

		// Admin routes
		r.Get("/audit", h.ListAudit)
		r.Get("/reconciliation", h.GetReconciliation)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Leave Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Leave Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/users">/api/users</a> - List users</li>
<li><a href="/api/applications">/api/applications</a> - List leave applications</li>
<li><a href="/api/calendar">/api/calendar</a> - Team calendar for the current month</li>
<li><a href="/api/holidays">/api/holidays</a> - Public holidays</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
