// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"backoffice/internal/models"
	"backoffice/internal/store"
)

var errInjected = errors.New("injected storage failure")

// faultyAccessor wraps an accessor, records writes and fails the Nth
// update or delete when configured. It hides WithinOwner, so the Service
// treats it as non-transactional.
type faultyAccessor struct {
	inner store.CategoryAccessor

	mu           sync.Mutex
	updates      []uuid.UUID
	deletes      []uuid.UUID
	finds        int
	failUpdateAt int // 1-based; 0 disables
	failDeleteAt int
	failFind     bool

	// beforeUpdate, when set, runs ahead of every update with its 1-based
	// number.
	beforeUpdate func(n int)
}

func (f *faultyAccessor) FindOne(ctx context.Context, flt store.CategoryFilter) (*models.Category, error) {
	return f.over(f.inner).FindOne(ctx, flt)
}

func (f *faultyAccessor) Find(ctx context.Context, flt store.CategoryFilter) ([]models.Category, error) {
	return f.over(f.inner).Find(ctx, flt)
}

func (f *faultyAccessor) Insert(ctx context.Context, c *models.Category) error {
	return f.over(f.inner).Insert(ctx, c)
}

func (f *faultyAccessor) Update(ctx context.Context, id uuid.UUID, fields store.CategoryFields) error {
	return f.over(f.inner).Update(ctx, id, fields)
}

func (f *faultyAccessor) Delete(ctx context.Context, id uuid.UUID) error {
	return f.over(f.inner).Delete(ctx, id)
}

// over applies f's faults and records to calls on inner.
func (f *faultyAccessor) over(inner store.CategoryAccessor) *faultyView {
	return &faultyView{f: f, inner: inner}
}

type faultyView struct {
	f     *faultyAccessor
	inner store.CategoryAccessor
}

func (v *faultyView) FindOne(ctx context.Context, flt store.CategoryFilter) (*models.Category, error) {
	if v.f.countFind() {
		return nil, errInjected
	}
	return v.inner.FindOne(ctx, flt)
}

func (v *faultyView) Find(ctx context.Context, flt store.CategoryFilter) ([]models.Category, error) {
	if v.f.countFind() {
		return nil, errInjected
	}
	return v.inner.Find(ctx, flt)
}

func (v *faultyView) Insert(ctx context.Context, c *models.Category) error {
	return v.inner.Insert(ctx, c)
}

func (v *faultyView) Update(ctx context.Context, id uuid.UUID, fields store.CategoryFields) error {
	v.f.mu.Lock()
	v.f.updates = append(v.f.updates, id)
	n := len(v.f.updates)
	v.f.mu.Unlock()
	if v.f.beforeUpdate != nil {
		v.f.beforeUpdate(n)
	}
	if v.f.failUpdateAt > 0 && n == v.f.failUpdateAt {
		return errInjected
	}
	return v.inner.Update(ctx, id, fields)
}

func (v *faultyView) Delete(ctx context.Context, id uuid.UUID) error {
	v.f.mu.Lock()
	v.f.deletes = append(v.f.deletes, id)
	n := len(v.f.deletes)
	v.f.mu.Unlock()
	if v.f.failDeleteAt > 0 && n == v.f.failDeleteAt {
		return errInjected
	}
	return v.inner.Delete(ctx, id)
}

// countFind records a read and reports whether it should fail.
func (f *faultyAccessor) countFind() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	return f.failFind
}

// txFaultyAccessor is a faultyAccessor whose mutations run inside the
// memory store's WithinOwner, so the Service gets isolation and rollback.
// Reads outside a mutation go to the committed rows.
type txFaultyAccessor struct {
	*faultyAccessor
	mem *store.MemoryCategoryStore
}

func (t *txFaultyAccessor) WithinOwner(ctx context.Context, ownerID uuid.UUID, fn func(store.CategoryAccessor) error) error {
	return t.mem.WithinOwner(ctx, ownerID, func(tx store.CategoryAccessor) error {
		return fn(t.faultyAccessor.over(tx))
	})
}

// gateAccessor pauses the first roots query issued after arm until open is
// called, holding a forest read in flight. The paused query fails if its
// context was cancelled meanwhile.
type gateAccessor struct {
	*store.MemoryCategoryStore

	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateAccessor(mem *store.MemoryCategoryStore) *gateAccessor {
	return &gateAccessor{
		MemoryCategoryStore: mem,
		reached:             make(chan struct{}),
		release:             make(chan struct{}),
	}
}

func (g *gateAccessor) arm() { g.armed.Store(true) }

func (g *gateAccessor) open() { g.once.Do(func() { close(g.release) }) }

func (g *gateAccessor) Find(ctx context.Context, flt store.CategoryFilter) ([]models.Category, error) {
	items, err := g.MemoryCategoryStore.Find(ctx, flt)
	if flt.RootsOnly && g.armed.CompareAndSwap(true, false) {
		close(g.reached)
		<-g.release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return items, err
}

// mustCreate creates a category through the engine or fails the test.
func mustCreate(t *testing.T, e *Engine, owner uuid.UUID, name string, parent *models.Category) *models.Category {
	t.Helper()
	var pid *uuid.UUID
	if parent != nil {
		pid = &parent.ID
	}
	c, err := e.Create(context.Background(), owner, name, pid)
	if err != nil {
		t.Fatalf("Create %q: %v", name, err)
	}
	return c
}

// assertPathInvariant checks that every stored node's path is the join of
// its ancestor chain's names, walking leaf to root.
func assertPathInvariant(t *testing.T, acc store.CategoryAccessor) {
	t.Helper()
	ctx := context.Background()
	all, err := acc.Find(ctx, store.CategoryFilter{})
	if err != nil {
		t.Fatalf("Find all: %v", err)
	}
	byID := make(map[uuid.UUID]models.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	for _, c := range all {
		var names []string
		cur := c
		for {
			names = append([]string{cur.Name}, names...)
			if cur.ParentID == nil {
				break
			}
			parent, ok := byID[*cur.ParentID]
			if !ok {
				t.Errorf("%s: dangling parent %s", c.Name, *cur.ParentID)
				break
			}
			if parent.OwnerID != c.OwnerID {
				t.Errorf("%s: parent belongs to another owner", c.Name)
			}
			cur = parent
		}
		if want := strings.Join(names, models.PathSeparator); c.Path != want {
			t.Errorf("%s: path %q, want %q", c.Name, c.Path, want)
		}
	}
}

func findByID(t *testing.T, acc store.CategoryAccessor, id uuid.UUID) *models.Category {
	t.Helper()
	c, err := acc.FindOne(context.Background(), store.CategoryFilter{ID: &id})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	return c
}
