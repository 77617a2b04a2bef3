package api

import (
	_ "fxcache/docs"
	"fxcache/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swagger "github.com/swaggo/http-swagger"
)

func NewRouter(rateHandler *handler.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/api/v1/rates/{base:[A-Za-z]{3}}", rateHandler.GetLatest)
	router.Get("/api/v1/rates/{base:[A-Za-z]{3}}/history", rateHandler.GetHistory)
	router.Get("/api/v1/rates/{base:[A-Za-z]{3}}/{quote:[A-Za-z]{3}}/convert", rateHandler.Convert)
	return router
}
