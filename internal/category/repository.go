// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"

	"github.com/google/uuid"

	"backoffice/internal/models"
	"backoffice/internal/store"
)

// repository turns tree operations into accessor filters and wraps every
// accessor failure in a StorageError.
type repository struct {
	acc store.CategoryAccessor
}

func (r repository) byID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := r.acc.FindOne(ctx, store.CategoryFilter{ID: &id})
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return c, nil
}

func (r repository) ownedBy(ctx context.Context, id, ownerID uuid.UUID) (*models.Category, error) {
	c, err := r.acc.FindOne(ctx, store.CategoryFilter{ID: &id, OwnerID: &ownerID})
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return c, nil
}

func (r repository) childrenOf(ctx context.Context, ownerID, parentID uuid.UUID) ([]models.Category, error) {
	items, err := r.acc.Find(ctx, store.CategoryFilter{OwnerID: &ownerID, ParentID: &parentID})
	if err != nil {
		return nil, &StorageError{Op: "list children", Err: err}
	}
	return items, nil
}

func (r repository) rootsOf(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	items, err := r.acc.Find(ctx, store.CategoryFilter{OwnerID: &ownerID, RootsOnly: true})
	if err != nil {
		return nil, &StorageError{Op: "list roots", Err: err}
	}
	return items, nil
}

func (r repository) insert(ctx context.Context, c *models.Category) error {
	if err := r.acc.Insert(ctx, c); err != nil {
		return &StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (r repository) setNamePath(ctx context.Context, id uuid.UUID, name, path string) error {
	if err := r.acc.Update(ctx, id, store.CategoryFields{Name: &name, Path: &path}); err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	return nil
}

func (r repository) setPath(ctx context.Context, id uuid.UUID, path string) error {
	if err := r.acc.Update(ctx, id, store.CategoryFields{Path: &path}); err != nil {
		return &StorageError{Op: "update path", Err: err}
	}
	return nil
}

func (r repository) remove(ctx context.Context, id uuid.UUID) error {
	if err := r.acc.Delete(ctx, id); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
