// Package api wires the HTTP surface: routing, JSON encoding, bearer-token
// authentication and error-to-status mapping.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full route tree. Registration and health are public;
// everything under /api/v1 otherwise requires a tenant token.
func NewRouter(h *APIHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/api/health", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/user/register", h.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)

			r.Post("/assistant", h.handleCreateAssistant)
			r.Get("/assistant", h.handleListAssistants)

			r.Route("/assistant/{assistantID}", func(r chi.Router) {
				r.Delete("/", h.handleDeleteAssistant)

				r.Post("/database/upload", h.handleUpload)
				r.Post("/database/add_source", h.handleAddSource)
				r.Delete("/database", h.handleResetDatabase)

				r.Get("/files", h.handleListFiles)
				r.Delete("/files/{fileID}", h.handleDeleteFile)

				r.Post("/thread", h.handleCreateThread)
				r.Get("/thread", h.handleListThreads)
				r.Get("/thread/{threadID}/messages", h.handleListMessages)

				r.Post("/query", h.handleQuery)
				r.Post("/query/{threadID}", h.handleQuery)
			})
		})
	})

	return r
}
