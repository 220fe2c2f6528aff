package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-id/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	facesHandler := handlers.NewFacesHandler(s.service)
	entriesHandler := handlers.NewEntriesHandler(s.service)
	health := handlers.HealthCheck(s.config.Embedding.Model)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health)

		r.Post("/enroll", facesHandler.Enroll)
		r.Post("/identify", facesHandler.Identify)
		r.Post("/verify", facesHandler.Verify)

		r.Get("/entries", entriesHandler.List)
		r.Get("/stats", entriesHandler.Stats)
	})

	// Unversioned paths used by existing camera clients.
	s.router.Get("/health", health)
	s.router.Post("/enroll", facesHandler.Enroll)
	s.router.Post("/identify", facesHandler.Identify)
}
