package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maksimkurb/openwrt-monitor/src/internal/metrics"
)

// NewRouter creates a new HTTP router with all API endpoints.
// A nil recorder disables /metrics and request instrumentation.
func NewRouter(provider DependenciesProvider, recorder *metrics.Recorder) http.Handler {
	return newRouter(NewHandler(provider), recorder)
}

func newRouter(h *Handler, recorder *metrics.Recorder) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recovery)
	r.Use(Logger)
	r.Use(PrivateSubnetOnly)
	r.Use(CORS)
	r.Use(JSONContentType)
	if recorder != nil {
		r.Use(recorder.Middleware)
	}

	r.Get("/health", h.CheckHealth)
	if recorder != nil {
		r.Method(http.MethodGet, "/metrics", recorder.Handler())
	}

	r.Route("/api/v1/routers", func(r chi.Router) {
		r.Get("/", h.GetRouters)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/snapshot", h.GetSnapshot)
			r.Get("/device", h.GetDevice)
			r.Get("/entities", h.GetEntities)
			r.Post("/refresh", h.Refresh)

			r.Get("/actions", h.GetActions)
			r.Post("/actions", h.ExecuteAction)
			r.Post("/actions/{action}", h.RunAction)
		})
	})

	return r
}
