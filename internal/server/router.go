package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/settings"
)

// Routes groups the domain handlers mounted by NewRouter.
type Routes struct {
	Calculator *calculator.Handler
	History    *history.Handler
	Settings   *settings.Handler
}

func NewRouter(routes Routes) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	if routes.Calculator != nil {
		routes.Calculator.RegisterRoutes(r)
	}
	if routes.History != nil {
		routes.History.RegisterRoutes(r)
	}
	if routes.Settings != nil {
		routes.Settings.RegisterRoutes(r)
	}

	return r
}
