package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions carries the server settings the routes need.
type RouterOptions struct {
	AdminToken     string
	RateLimit      int
	MaxUploadBytes int64
}

func NewRouter(rk Ranker, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(opts.RateLimit))

	ranking := NewRankingHandler(rk)
	weights := NewWeightsHandler(rk)
	villages := NewVillagesHandler(rk, opts.MaxUploadBytes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", ranking.Dashboard)
		r.Get("/ranking", ranking.Ranking)
		r.Get("/ranking/frontier", ranking.Frontier)
		r.Get("/ranking/{name}", ranking.Explain)
		r.Get("/criteria", ranking.Criteria)
		r.Get("/weights", weights.Get)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(opts.AdminToken))
			r.Put("/weights", weights.Update)
			r.Post("/villages", villages.Create)
			r.Post("/villages/import", villages.Import)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
