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

// BuildForest assembles the owner's categories into nested trees. Roots and
// each node's children are in creation order. It issues one query per node,
// so it suits shallow to moderately sized forests.
func BuildForest(ctx context.Context, acc store.CategoryAccessor, ownerID uuid.UUID) ([]models.Category, error) {
	repo := repository{acc: acc}

	roots, err := repo.rootsOf(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if roots == nil {
		roots = []models.Category{}
	}

	// Each queued pointer addresses an element of a slice that is never
	// appended to afterwards, so the pointers stay valid.
	queue := make([]*models.Category, 0, len(roots))
	for i := range roots {
		queue = append(queue, &roots[i])
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		children, err := repo.childrenOf(ctx, ownerID, n.ID)
		if err != nil {
			return nil, err
		}
		for i := range children {
			children[i].Depth = n.Depth + 1
		}
		n.Children = children
		for i := range n.Children {
			queue = append(queue, &n.Children[i])
		}
	}
	return roots, nil
}

// Flatten walks a forest depth-first and returns every node once, in
// display order, with Depth set and Children cleared. Useful for <select>
// dropdowns.
func Flatten(forest []models.Category) []models.Category {
	result := []models.Category{}
	stack := make([]models.Category, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := len(c.Children) - 1; i >= 0; i-- {
			stack = append(stack, c.Children[i])
		}
		c.Children = nil
		result = append(result, c)
	}
	return result
}
