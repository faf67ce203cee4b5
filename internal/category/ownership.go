// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"

	"github.com/google/uuid"

	"backoffice/internal/store"
)

// BelongsToOwner reports whether a category with id exists in ownerID's
// forest. A category of another owner and a missing id both report false.
func BelongsToOwner(ctx context.Context, acc store.CategoryAccessor, id, ownerID uuid.UUID) (bool, error) {
	c, err := repository{acc: acc}.ownedBy(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}
