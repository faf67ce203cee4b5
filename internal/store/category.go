// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"backoffice/internal/models"
)

// dbtx is the subset of *sql.DB and *sql.Tx used by CategoryStore.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CategoryStore manages categories in PostgreSQL.
type CategoryStore struct {
	db *sql.DB
	q  dbtx

	// inTx is set on stores bound to an open transaction.
	inTx bool
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db, q: db}
}

var (
	_ CategoryAccessor   = (*CategoryStore)(nil)
	_ CategoryTransactor = (*CategoryStore)(nil)
)

const categoryColumns = `id, owner_id, name, path, parent_id, created_at, updated_at`

// forestLockPrefix namespaces the advisory lock key taken per owner.
const forestLockPrefix = "category_forest:"

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Path,
		&c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// where renders the filter as a WHERE clause with positional arguments.
func (f CategoryFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ID != nil {
		add("id = $%d", *f.ID)
	}
	if f.OwnerID != nil {
		add("owner_id = $%d", *f.OwnerID)
	}
	if f.ParentID != nil {
		add("parent_id = $%d", *f.ParentID)
	} else if f.RootsOnly {
		conds = append(conds, "parent_id IS NULL")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindOne returns the first category matching the filter. Returns nil if
// nothing matches.
func (s *CategoryStore) FindOne(ctx context.Context, f CategoryFilter) (*models.Category, error) {
	where, args := f.where()
	row := s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories`+where+` ORDER BY created_at, id LIMIT 1`,
		args...,
	)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// Find returns all categories matching the filter in creation order.
func (s *CategoryStore) Find(ctx context.Context, f CategoryFilter) ([]models.Category, error) {
	where, args := f.where()
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories`+where+` ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Insert stores a new category. A time-ordered id is assigned when c.ID is
// nil; timestamps are filled from the database.
func (s *CategoryStore) Insert(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate category id: %w", err)
		}
		c.ID = id
	}

	row := s.q.QueryRowContext(ctx, `
		INSERT INTO categories (id, owner_id, name, path, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.ID, c.OwnerID, c.Name, c.Path, c.ParentID,
	)
	created, err := scanCategory(row)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	*c = *created
	return nil
}

// Update sets the given fields on a category and bumps updated_at.
func (s *CategoryStore) Update(ctx context.Context, id uuid.UUID, fields CategoryFields) error {
	var sets []string
	var args []any
	if fields.Name != nil {
		args = append(args, *fields.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if fields.Path != nil {
		args = append(args, *fields.Path)
		sets = append(sets, fmt.Sprintf("path = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	res, err := s.q.ExecContext(ctx,
		`UPDATE categories SET `+strings.Join(sets, ", ")+fmt.Sprintf(` WHERE id = $%d`, len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res, "update category")
}

// Delete removes a single category row. Children must be removed first;
// the parent_id foreign key is ON DELETE RESTRICT.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res, "delete category")
}

// WithinOwner runs fn inside a transaction holding a transaction-scoped
// advisory lock on the owner's forest. Concurrent mutations of the same
// forest from any process queue behind the lock.
func (s *CategoryStore) WithinOwner(ctx context.Context, ownerID uuid.UUID, fn func(CategoryAccessor) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, forestLockPrefix+ownerID.String()); err != nil {
		return fmt.Errorf("lock category forest: %w", err)
	}

	if err := fn(&CategoryStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Count returns the total number of category rows.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoRows)
	}
	return nil
}
