// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package category maintains per-owner forests of accounting-file
// categories. Every node stores a materialized path (its ancestors' names
// joined by "/", most distant first) which the Engine keeps consistent
// under create, rename and delete.
//
// The Engine does not check ownership on rename and delete. Callers go
// through Service, which checks ownership, serialises mutations per owner
// and runs each cascade inside one storage transaction.
package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"backoffice/internal/models"
	"backoffice/internal/store"
)

// MaxNameLen is the maximum length of a category name in runes.
const MaxNameLen = 200

var errDanglingParent = errors.New("parent row is missing")

// Engine applies tree mutations through a storage accessor.
type Engine struct {
	repo repository
}

// NewEngine returns an Engine reading and writing through acc.
func NewEngine(acc store.CategoryAccessor) *Engine {
	return &Engine{repo: repository{acc: acc}}
}

// NormalizeName trims a category name and validates it.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	case utf8.RuneCountInString(name) > MaxNameLen:
		return "", fmt.Errorf("%w: name is too long (max %d characters)", ErrInvalidName, MaxNameLen)
	case strings.Contains(name, models.PathSeparator):
		return "", fmt.Errorf("%w: name may not contain %q", ErrInvalidName, models.PathSeparator)
	}
	return name, nil
}

// Create inserts a new category. With a parent, the parent must exist and
// belong to ownerID. Sibling names are not required to be unique.
func (e *Engine) Create(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	c := &models.Category{OwnerID: ownerID, Name: name, Path: name}
	if parentID != nil {
		parent, err := e.repo.byID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.OwnerID != ownerID {
			return nil, ErrInvalidParent
		}
		pid := parent.ID
		c.ParentID = &pid
		c.Path = models.JoinPath(parent.Path, name)
	}

	if err := e.repo.insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename changes a category's name and recomputes the path of the node and
// every descendant. It returns the updated node and the number of
// descendants whose path was rewritten.
func (e *Engine) Rename(ctx context.Context, id uuid.UUID, newName string) (*models.Category, int, error) {
	newName, err := NormalizeName(newName)
	if err != nil {
		return nil, 0, err
	}

	node, err := e.repo.byID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if node == nil {
		return nil, 0, ErrNotFound
	}

	parentPath := ""
	if !node.IsRoot() {
		parent, err := e.repo.byID(ctx, *node.ParentID)
		if err != nil {
			return nil, 0, err
		}
		if parent == nil {
			return nil, 0, &StorageError{Op: "rename", Err: fmt.Errorf("category %s: %w", node.ID, errDanglingParent)}
		}
		parentPath = parent.Path
	}

	newPath := models.JoinPath(parentPath, newName)
	if newName == node.Name && newPath == node.Path {
		return node, 0, nil
	}

	if err := e.repo.setNamePath(ctx, node.ID, newName, newPath); err != nil {
		return nil, 0, err
	}
	node.Name, node.Path = newName, newPath

	n, err := e.cascadePaths(ctx, node.OwnerID, node.ID, newPath)
	if err != nil {
		return nil, n, err
	}
	return node, n, nil
}

// pathFrame is a pending descendant: its id and freshly computed path.
type pathFrame struct {
	id   uuid.UUID
	path string
}

// cascadePaths rewrites the path of every descendant of rootID, depth-first
// in creation order. A node's path is persisted before its children are
// read, so each child's base is its parent's freshly written path. The
// first failure stops the walk.
func (e *Engine) cascadePaths(ctx context.Context, ownerID, rootID uuid.UUID, rootPath string) (int, error) {
	stack := []pathFrame{{id: rootID, path: rootPath}}
	updated := 0

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.id != rootID {
			if err := e.repo.setPath(ctx, f.id, f.path); err != nil {
				return updated, err
			}
			updated++
		}

		children, err := e.repo.childrenOf(ctx, ownerID, f.id)
		if err != nil {
			return updated, err
		}
		// Push in reverse so the earliest-created child is visited first.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pathFrame{
				id:   children[i].ID,
				path: models.JoinPath(f.path, children[i].Name),
			})
		}
	}
	return updated, nil
}

// Delete removes a category and all of its descendants. Rows are removed
// leaves-first so no row ever outlives its parent. It returns the ids of
// every removed node, the target first.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	node, err := e.repo.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}

	subtree, err := e.collectSubtree(ctx, node)
	if err != nil {
		return nil, err
	}

	// Reverse pre-order puts every descendant ahead of its ancestors.
	for i := len(subtree) - 1; i >= 0; i-- {
		if err := e.repo.remove(ctx, subtree[i]); err != nil {
			return nil, err
		}
	}
	return subtree, nil
}

// collectSubtree returns the ids of node and its descendants in pre-order.
func (e *Engine) collectSubtree(ctx context.Context, node *models.Category) ([]uuid.UUID, error) {
	var order []uuid.UUID
	stack := []uuid.UUID{node.ID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)

		children, err := e.repo.childrenOf(ctx, node.OwnerID, id)
		if err != nil {
			return nil, err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i].ID)
		}
	}
	return order, nil
}
