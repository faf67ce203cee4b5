// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the domain types shared by the store, the category
// engine and the HTTP handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PathSeparator joins ancestor names in a category's materialized path.
const PathSeparator = "/"

// Category is a node in an owner's forest of accounting-file categories.
// Path is derived from the ancestor chain and is never set by callers.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	ParentID  *uuid.UUID `json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Virtual fields populated by tree assembly.
	Children []Category `json:"children,omitempty"`
	Depth    int        `json:"depth"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// JoinPath returns the materialized path of a node named name whose parent
// has parentPath. An empty parentPath means the node is a root.
func JoinPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + PathSeparator + name
}

