// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/models"
)

var (
	_ CategoryAccessor   = (*MemoryCategoryStore)(nil)
	_ CategoryTransactor = (*MemoryCategoryStore)(nil)
)

// memoryRow is a stored category plus its insertion sequence.
type memoryRow struct {
	seq int64
	cat models.Category
}

// MemoryCategoryStore is an in-process CategoryAccessor. Rows are kept in
// insertion order, which doubles as creation order.
type MemoryCategoryStore struct {
	mu   sync.RWMutex
	rows []memoryRow
	seq  int64

	// owners serialises WithinOwner calls per owner.
	ownersMu sync.Mutex
	owners   map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

// NewMemoryCategoryStore returns an empty in-memory store.
func NewMemoryCategoryStore() *MemoryCategoryStore {
	return &MemoryCategoryStore{
		owners: make(map[uuid.UUID]*sync.Mutex),
		now:    time.Now,
	}
}

// FindOne returns the first matching category, or nil.
func (s *MemoryCategoryStore) FindOne(_ context.Context, f CategoryFilter) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.rows {
		if f.matches(&s.rows[i].cat) {
			c := cloneCategory(s.rows[i].cat)
			return &c, nil
		}
	}
	return nil, nil
}

// Find returns every matching category in creation order.
func (s *MemoryCategoryStore) Find(_ context.Context, f CategoryFilter) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Category
	for i := range s.rows {
		if f.matches(&s.rows[i].cat) {
			items = append(items, cloneCategory(s.rows[i].cat))
		}
	}
	return items, nil
}

// Insert appends a category, assigning an id and timestamps. c is left
// untouched when the insert is rejected.
func (s *MemoryCategoryStore) Insert(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ParentID != nil && s.indexOf(*c.ParentID) < 0 {
		return fmt.Errorf("insert category: parent %s does not exist", *c.ParentID)
	}
	id := c.ID
	if id == uuid.Nil {
		var err error
		if id, err = uuid.NewV7(); err != nil {
			return fmt.Errorf("generate category id: %w", err)
		}
	} else if s.indexOf(id) >= 0 {
		return fmt.Errorf("insert category: duplicate id %s", id)
	}
	c.ID = id

	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Children, c.Depth = nil, 0

	s.seq++
	s.rows = append(s.rows, memoryRow{seq: s.seq, cat: cloneCategory(*c)})
	return nil
}

// Update sets the given fields on a category.
func (s *MemoryCategoryStore) Update(_ context.Context, id uuid.UUID, fields CategoryFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("update category: %w", ErrNoRows)
	}
	if fields.Name != nil {
		s.rows[i].cat.Name = *fields.Name
	}
	if fields.Path != nil {
		s.rows[i].cat.Path = *fields.Path
	}
	s.rows[i].cat.UpdatedAt = s.now()
	return nil
}

// Delete removes a category. Like the PostgreSQL schema, a row that still
// has children cannot be removed.
func (s *MemoryCategoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete category: %w", ErrNoRows)
	}
	for j := range s.rows {
		if p := s.rows[j].cat.ParentID; p != nil && *p == id {
			return fmt.Errorf("delete category: %s still has children", id)
		}
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return nil
}

// WithinOwner serialises fn against other WithinOwner calls for the same
// owner. fn works on a private copy of the store, so other readers never
// see its writes; the owner's rows are swapped in only if fn succeeds.
func (s *MemoryCategoryStore) WithinOwner(_ context.Context, ownerID uuid.UUID, fn func(CategoryAccessor) error) error {
	lock := s.ownerMutex(ownerID)
	lock.Lock()
	defer lock.Unlock()

	tx := s.begin()
	base := tx.seq
	if err := fn(tx); err != nil {
		return err
	}
	s.commit(ownerID, tx, base)
	return nil
}

// Count returns the total number of stored categories.
func (s *MemoryCategoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

func (s *MemoryCategoryStore) ownerMutex(ownerID uuid.UUID) *sync.Mutex {
	s.ownersMu.Lock()
	defer s.ownersMu.Unlock()

	m, ok := s.owners[ownerID]
	if !ok {
		m = &sync.Mutex{}
		s.owners[ownerID] = m
	}
	return m
}

// begin returns a private copy of every row for one transaction.
func (s *MemoryCategoryStore) begin() *MemoryCategoryStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]memoryRow, len(s.rows))
	for i, r := range s.rows {
		rows[i] = memoryRow{seq: r.seq, cat: cloneCategory(r.cat)}
	}
	return &MemoryCategoryStore{
		rows:   rows,
		seq:    s.seq,
		owners: make(map[uuid.UUID]*sync.Mutex),
		now:    s.now,
	}
}

// commit replaces ownerID's rows with those of tx. Rows inserted by tx
// (seq above base) get fresh sequence numbers in their insertion order.
func (s *MemoryCategoryStore) commit(ownerID uuid.UUID, tx *MemoryCategoryStore, base int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := slices.DeleteFunc(s.rows, func(r memoryRow) bool {
		return r.cat.OwnerID == ownerID
	})
	for _, r := range tx.rows {
		if r.cat.OwnerID != ownerID {
			continue
		}
		if r.seq > base {
			s.seq++
			r.seq = s.seq
		}
		rows = append(rows, r)
	}
	slices.SortFunc(rows, func(a, b memoryRow) int {
		return cmp.Compare(a.seq, b.seq)
	})
	s.rows = rows
}

// indexOf returns the position of id in rows, or -1. Callers hold mu.
func (s *MemoryCategoryStore) indexOf(id uuid.UUID) int {
	for i := range s.rows {
		if s.rows[i].cat.ID == id {
			return i
		}
	}
	return -1
}

func cloneCategory(c models.Category) models.Category {
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	c.Children = nil
	return c
}
