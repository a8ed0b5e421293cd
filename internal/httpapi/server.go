package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kingo/internal/push"
)

// NewRouter builds the full HTTP surface of §6: the chi router, grounded
// in kmkrofficial-project-tachyon's internal/api/server.go (middleware.Logger,
// middleware.Recoverer, a custom admission middleware chain) plus
// go-chi/cors for the public API, matching jordigilh-kubernaut's go.mod.
func NewRouter(svc *Services, limiter *RateLimiter, pushHandler *push.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	r.Get("/health", svc.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/ws", pushHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.With(limiter.Endpoint("/api/v1/videos/resolutions")).
			Post("/videos/resolutions", svc.handleResolutions)

		api.With(limiter.Downloads).
			Post("/downloads/", svc.handleCreateDownload)
		api.Get("/downloads/file/{token}", svc.handleDownloadFile)

		api.Get("/jobs/{job_id}", svc.handleGetJob)
		api.Delete("/jobs/{job_id}", svc.handleDeleteJob)
	})

	return r
}
