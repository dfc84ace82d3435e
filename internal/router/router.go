package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/herald-io/herald/internal/handler"
	herald "github.com/herald-io/herald/internal/middleware"
)

// New assembles the API routes with their middleware stack.
func New(nh *handler.NotificationHandler, hh *handler.HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(herald.Metrics)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/notifications", nh.Submit)
	r.Get("/users/{userID}/notifications", nh.ListByUser)

	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
