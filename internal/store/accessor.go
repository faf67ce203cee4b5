// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides persistence for categories. CategoryStore talks to
// PostgreSQL through database/sql; MemoryCategoryStore keeps everything in
// process for tests and ephemeral environments. Both satisfy
// CategoryAccessor and CategoryTransactor.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"backoffice/internal/models"
)

// ErrNoRows is returned by Update and Delete when no row matched the id.
var ErrNoRows = errors.New("store: no rows affected")

// CategoryFilter selects category rows. Nil fields are not constrained.
type CategoryFilter struct {
	ID       *uuid.UUID
	OwnerID  *uuid.UUID
	ParentID *uuid.UUID

	// RootsOnly restricts the result to rows whose parent_id is NULL.
	// It is ignored when ParentID is set.
	RootsOnly bool
}

// CategoryFields holds the mutable columns for Update. Nil fields are left
// unchanged.
type CategoryFields struct {
	Name *string
	Path *string
}

// CategoryAccessor is the storage contract the category engine is written
// against. Find returns rows in creation order.
type CategoryAccessor interface {
	FindOne(ctx context.Context, f CategoryFilter) (*models.Category, error)
	Find(ctx context.Context, f CategoryFilter) ([]models.Category, error)
	Insert(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, id uuid.UUID, fields CategoryFields) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryTransactor runs fn against an accessor whose writes are applied
// atomically and exclusively for one owner's forest. If fn returns an error
// none of its writes are kept.
type CategoryTransactor interface {
	WithinOwner(ctx context.Context, ownerID uuid.UUID, fn func(CategoryAccessor) error) error
}

// matches reports whether c satisfies the filter.
func (f CategoryFilter) matches(c *models.Category) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.OwnerID != nil && c.OwnerID != *f.OwnerID {
		return false
	}
	if f.ParentID != nil {
		return c.ParentID != nil && *c.ParentID == *f.ParentID
	}
	if f.RootsOnly && !c.IsRoot() {
		return false
	}
	return true
}
