// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// OwnerKey is the context key for the owner id of the request.
	OwnerKey contextKey = "owner"
)

// OwnerScope parses the owner id from the named chi URL parameter and
// stores it in the request context. Downstream handlers read it via
// OwnerFromCtx. A malformed id is rejected with 400.
func OwnerScope(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, err := uuid.Parse(chi.URLParam(r, param))
			if err != nil || ownerID == uuid.Nil {
				writeError(w, http.StatusBadRequest, "invalid owner id")
				return
			}

			ctx := context.WithValue(r.Context(), OwnerKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromCtx returns the owner id stored by OwnerScope.
func OwnerFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(OwnerKey).(uuid.UUID)
	return id, ok
}

// WithOwner returns a copy of ctx carrying ownerID.
func WithOwner(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, OwnerKey, ownerID)
}
