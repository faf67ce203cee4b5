// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// back-office API. Category routes are grouped per owner under
// /api/owners/{ownerID}/categories.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"backoffice/internal/handlers"
	"backoffice/internal/middleware"
)

// Deps holds what the router wires into the route tree.
type Deps struct {
	Categories *handlers.Categories

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// WriteLimiter throttles mutating category requests. Nil disables it.
	WriteLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Operational endpoints.
	r.Get("/health", healthHandler)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/owners/{ownerID}/categories", func(r chi.Router) {
		r.Use(middleware.SecureHeaders)
		r.Use(middleware.OwnerScope("ownerID"))
		if d.WriteLimiter != nil {
			r.Use(d.WriteLimiter.Writes)
		}

		c := d.Categories
		r.Get("/", c.List)
		r.Post("/", c.Create)
		r.Get("/{id}", c.Get)
		r.Patch("/{id}", c.Rename)
		r.Delete("/{id}", c.Delete)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
