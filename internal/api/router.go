package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-audio/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// No auth required
		r.Get("/health", s.handleHealth)
		r.Post("/auth/token", s.handleToken)

		// WebSocket authenticates with the token query parameter.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.With(s.requirePermission(auth.PermDeviceRead)).Get("/metrics", s.handleMetrics)
			r.With(s.requirePermission(auth.PermDeviceConfigure)).Get("/audit", s.handleListAudit)

			r.Route("/devices", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermDeviceRead)).Get("/", s.handleListDevices)
				r.With(s.requirePermission(auth.PermDeviceConfigure)).Post("/", s.handleAddDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(s.requirePermission(auth.PermDeviceRead))
						r.Get("/", s.handleGetDevice)
						r.Get("/commands", s.handleGetCommands)
						r.Get("/buttons", s.handleGetButtons)
						r.Get("/pages", s.handleGetPages)
						r.Get("/capabilities", s.handleGetCapabilities)
						r.Get("/sources", s.handleGetSources)
					})
					r.Group(func(r chi.Router) {
						r.Use(s.requirePermission(auth.PermDeviceOperate))
						r.Post("/commands", s.handleSendCommand)
						r.Post("/refresh", s.handleRefresh)
					})
					r.With(s.requirePermission(auth.PermDeviceConfigure)).Delete("/", s.handleRemoveDevice)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.devices.Registry().Len(),
	})
}
