package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/audiobound/audiobound/internal/health"
)

// NewRouter wires the conversion-job and voice-catalog endpoints, plus a
// health check, onto a chi router.
func NewRouter(books *BookHandler, voices *VoicesHandler, healthHandler *health.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", healthHandler.LivenessHandler())
	r.Get("/readyz", healthHandler.ReadinessHandler())
	r.Get("/health", healthHandler.HealthHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/voices", voices.ListVoices)

		r.Route("/books", func(r chi.Router) {
			r.Get("/", books.ListBooks)
			r.Post("/", books.UploadBook)

			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", books.GetBook)
				r.Get("/status", books.GetBookStatus)
				r.Post("/review", books.SubmitReview)
				r.Get("/progress", books.GetProgress)
				r.Get("/download", books.DownloadBook)
				r.Get("/audio/{fileName}", books.GetAudio)
			})
		})
	})

	return r
}
