// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"backoffice/internal/models"
)

// DemoOwnerID owns the development seed forest.
var DemoOwnerID = uuid.MustParse("00000000-0000-7000-8000-000000000001")

// CategoryCounter reports how many categories are stored.
type CategoryCounter interface {
	Count(ctx context.Context) (int, error)
}

// CategoryCreator creates categories, computing their paths.
type CategoryCreator interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, error)
}

// seedNode is one category of the demo forest.
type seedNode struct {
	name     string
	children []seedNode
}

var demoForest = []seedNode{
	{name: "Finance", children: []seedNode{
		{name: "2024", children: []seedNode{
			{name: "Invoices"},
			{name: "Receipts"},
			{name: "Bank statements"},
		}},
		{name: "2025", children: []seedNode{
			{name: "Invoices"},
		}},
	}},
	{name: "HR", children: []seedNode{
		{name: "Contracts"},
		{name: "Payroll"},
	}},
	{name: "Legal"},
}

// Seed populates an empty store with a demo forest for DemoOwnerID.
// Categories go through creator so paths are computed the normal way.
func Seed(ctx context.Context, counter CategoryCounter, creator CategoryCreator) error {
	count, err := counter.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	type pending struct {
		node     seedNode
		parentID *uuid.UUID
	}
	stack := make([]pending, 0, len(demoForest))
	for i := len(demoForest) - 1; i >= 0; i-- {
		stack = append(stack, pending{node: demoForest[i]})
	}

	created := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c, err := creator.Create(ctx, DemoOwnerID, p.node.name, p.parentID)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", p.node.name, err)
		}
		created++

		id := c.ID
		for i := len(p.node.children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: p.node.children[i], parentID: &id})
		}
	}

	slog.Info("database seeded with demo categories",
		"owner_id", DemoOwnerID,
		"categories", created,
	)
	return nil
}
