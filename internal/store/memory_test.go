// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"backoffice/internal/models"
)

func TestMemoryCategoryStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	owner := uuid.New()
	other := uuid.New()

	root := &models.Category{OwnerID: owner, Name: "Finance", Path: "Finance"}
	if err := s.Insert(ctx, root); err != nil {
		t.Fatalf("Insert root: %v", err)
	}
	if root.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}

	for _, name := range []string{"2023", "2024", "2025"} {
		c := &models.Category{OwnerID: owner, Name: name, Path: "Finance/" + name, ParentID: &root.ID}
		if err := s.Insert(ctx, c); err != nil {
			t.Fatalf("Insert %s: %v", name, err)
		}
	}
	if err := s.Insert(ctx, &models.Category{OwnerID: other, Name: "HR", Path: "HR"}); err != nil {
		t.Fatalf("Insert other: %v", err)
	}

	children, err := s.Find(ctx, CategoryFilter{OwnerID: &owner, ParentID: &root.ID})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	if len(names) != 3 || names[0] != "2023" || names[2] != "2025" {
		t.Errorf("children in creation order: got %v", names)
	}

	roots, _ := s.Find(ctx, CategoryFilter{OwnerID: &owner, RootsOnly: true})
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Errorf("roots: got %+v", roots)
	}

	got, _ := s.FindOne(ctx, CategoryFilter{ID: &root.ID, OwnerID: &other})
	if got != nil {
		t.Error("expected nil when owner does not match")
	}
}

func TestMemoryCategoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	c := &models.Category{OwnerID: uuid.New(), Name: "Finance", Path: "Finance"}
	if err := s.Insert(ctx, c); err != nil {
		t.Fatal(err)
	}

	got, _ := s.FindOne(ctx, CategoryFilter{ID: &c.ID})
	got.Name = "mutated"

	again, _ := s.FindOne(ctx, CategoryFilter{ID: &c.ID})
	if again.Name != "Finance" {
		t.Errorf("store row changed through returned value: %q", again.Name)
	}
}

func TestMemoryCategoryStoreInsertRejectsMissingParent(t *testing.T) {
	s := NewMemoryCategoryStore()
	missing := uuid.New()
	err := s.Insert(context.Background(), &models.Category{OwnerID: uuid.New(), Name: "x", Path: "x", ParentID: &missing})
	if err == nil {
		t.Fatal("expected error for missing parent")
	}
}

func TestMemoryCategoryStoreDeleteRestrictsChildren(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	owner := uuid.New()
	root := &models.Category{OwnerID: owner, Name: "A", Path: "A"}
	s.Insert(ctx, root)
	child := &models.Category{OwnerID: owner, Name: "B", Path: "A/B", ParentID: &root.ID}
	s.Insert(ctx, child)

	if err := s.Delete(ctx, root.ID); err == nil {
		t.Fatal("expected error deleting a row with children")
	}
	if err := s.Delete(ctx, child.ID); err != nil {
		t.Fatalf("Delete child: %v", err)
	}
	if err := s.Delete(ctx, root.ID); err != nil {
		t.Fatalf("Delete root: %v", err)
	}
	if err := s.Delete(ctx, root.ID); !errors.Is(err, ErrNoRows) {
		t.Errorf("second delete: got %v, want ErrNoRows", err)
	}
}

func TestMemoryCategoryStoreWithinOwnerRestoresOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	owner := uuid.New()
	other := uuid.New()

	a := &models.Category{OwnerID: owner, Name: "A", Path: "A"}
	s.Insert(ctx, a)
	b := &models.Category{OwnerID: other, Name: "B", Path: "B"}
	s.Insert(ctx, b)
	c := &models.Category{OwnerID: owner, Name: "C", Path: "C"}
	s.Insert(ctx, c)

	boom := errors.New("boom")
	err := s.WithinOwner(ctx, owner, func(acc CategoryAccessor) error {
		renamed := "Z"
		if err := acc.Update(ctx, a.ID, CategoryFields{Name: &renamed, Path: &renamed}); err != nil {
			return err
		}
		if err := acc.Delete(ctx, c.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	all, _ := s.Find(ctx, CategoryFilter{})
	if len(all) != 3 {
		t.Fatalf("rows after rollback: got %d, want 3", len(all))
	}
	want := []string{"A", "B", "C"}
	for i, row := range all {
		if row.Name != want[i] {
			t.Errorf("row %d: got %q, want %q", i, row.Name, want[i])
		}
	}
}

func TestMemoryCategoryStoreWithinOwnerKeepsWritesOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	owner := uuid.New()

	err := s.WithinOwner(ctx, owner, func(acc CategoryAccessor) error {
		return acc.Insert(ctx, &models.Category{OwnerID: owner, Name: "A", Path: "A"})
	})
	if err != nil {
		t.Fatalf("WithinOwner: %v", err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("count: got %d, want 1", n)
	}
}

func TestMemoryCategoryStoreWithinOwnerHidesUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	owner := uuid.New()

	a := &models.Category{OwnerID: owner, Name: "Finance", Path: "Finance"}
	s.Insert(ctx, a)

	err := s.WithinOwner(ctx, owner, func(acc CategoryAccessor) error {
		renamed := "Accounting"
		if err := acc.Update(ctx, a.ID, CategoryFields{Name: &renamed, Path: &renamed}); err != nil {
			return err
		}
		if err := acc.Insert(ctx, &models.Category{OwnerID: owner, Name: "HR", Path: "HR"}); err != nil {
			return err
		}

		outside, err := s.FindOne(ctx, CategoryFilter{ID: &a.ID})
		if err != nil {
			return err
		}
		if outside.Name != "Finance" {
			t.Errorf("uncommitted rename visible: got %q", outside.Name)
		}
		if n, _ := s.Count(ctx); n != 1 {
			t.Errorf("uncommitted insert visible: count %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinOwner: %v", err)
	}

	got, _ := s.FindOne(ctx, CategoryFilter{ID: &a.ID})
	if got.Name != "Accounting" {
		t.Errorf("after commit: got %q, want Accounting", got.Name)
	}
}

func TestMemoryCategoryStoreWithinOwnerKeepsOtherOwnersWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	owner := uuid.New()
	other := uuid.New()

	err := s.WithinOwner(ctx, owner, func(acc CategoryAccessor) error {
		if err := acc.Insert(ctx, &models.Category{OwnerID: owner, Name: "A", Path: "A"}); err != nil {
			return err
		}
		// Lands in the shared store while the transaction is open.
		return s.Insert(ctx, &models.Category{OwnerID: other, Name: "B", Path: "B"})
	})
	if err != nil {
		t.Fatalf("WithinOwner: %v", err)
	}

	all, _ := s.Find(ctx, CategoryFilter{})
	if len(all) != 2 {
		t.Fatalf("rows: got %d, want 2", len(all))
	}
	// B was stored first; A is numbered when the transaction commits.
	if all[0].Name != "B" || all[1].Name != "A" {
		t.Errorf("order: got %q, %q", all[0].Name, all[1].Name)
	}
}

func TestMemoryCategoryStoreInsertLeavesInputOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCategoryStore()
	missing := uuid.New()

	c := &models.Category{OwnerID: uuid.New(), Name: "x", Path: "x", ParentID: &missing}
	if err := s.Insert(ctx, c); err == nil {
		t.Fatal("expected error for missing parent")
	}
	if c.ID != uuid.Nil {
		t.Errorf("id assigned on rejected insert: %s", c.ID)
	}

	first := &models.Category{OwnerID: uuid.New(), Name: "a", Path: "a"}
	if err := s.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	dup := &models.Category{ID: first.ID, OwnerID: first.OwnerID, Name: "b", Path: "b"}
	if err := s.Insert(ctx, dup); err == nil {
		t.Fatal("expected error for duplicate id")
	}
	if !dup.CreatedAt.IsZero() {
		t.Error("timestamps set on rejected insert")
	}
}
