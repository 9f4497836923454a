package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/dyuan/voiceledger/internal/metrics"
)

// NewRouter assembles the HTTP surface around the handler set.
func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(Recovery(log))
	router.Use(RequestLogger(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         3600,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/classify", h.Classify)

		r.Route("/pending", func(r chi.Router) {
			r.Get("/", h.Pending)
			r.Patch("/", h.EditPending)
			r.Delete("/", h.CancelPending)
			r.Post("/confirm", h.ConfirmPending)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Delete("/{id}", h.RemoveTransaction)
		})

		r.Get("/summary", h.Summary)
		r.Get("/key-source", h.KeySource)
		r.Put("/settings/api-key", h.SaveAPIKey)
	})

	router.Get("/health", h.Health)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	return router
}
