// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"backoffice/internal/metrics"
	"backoffice/internal/models"
	"backoffice/internal/store"
)

// ForestCache stores assembled forests per owner under a generation shared
// by every process using the cache. Get reports the current generation even
// on a miss; a forest Set under a generation that Invalidate has since moved
// past is never returned.
type ForestCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) ([]models.Category, int64, bool)
	Set(ctx context.Context, ownerID uuid.UUID, gen int64, forest []models.Category)
	Invalidate(ctx context.Context, ownerID uuid.UUID)
}

// DocumentPurger removes documents attached to deleted categories.
type DocumentPurger interface {
	PurgeCategories(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) error
}

// Service is the entry point for handlers. It checks ownership before
// rename and delete, serialises mutations per owner and, when the accessor
// is a store.CategoryTransactor, runs every mutation in one transaction so
// a failed cascade leaves nothing behind.
type Service struct {
	acc     store.CategoryAccessor
	locks   *ownerLocks
	cache   ForestCache
	purger  DocumentPurger
	metrics *metrics.Category
	reads   singleflight.Group

	genMu sync.Mutex
	gens  map[uuid.UUID]uint64
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables forest caching.
func WithCache(c ForestCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPurger enables document removal after deletes.
func WithPurger(p DocumentPurger) Option {
	return func(s *Service) { s.purger = p }
}

// WithMetrics records mutation and cache metrics.
func WithMetrics(m *metrics.Category) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService returns a Service over acc.
func NewService(acc store.CategoryAccessor, opts ...Option) *Service {
	s := &Service{
		acc:   acc,
		locks: newOwnerLocks(),
		gens:  make(map[uuid.UUID]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a category to ownerID's forest.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, error) {
	var created *models.Category
	err := s.mutate(ctx, ownerID, "create", func(acc store.CategoryAccessor) error {
		c, err := NewEngine(acc).Create(ctx, ownerID, name, parentID)
		created = c
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("category created",
		"owner_id", ownerID,
		"id", created.ID,
		"path", created.Path,
	)
	return created, nil
}

// Rename renames a category of ownerID and rewrites its subtree's paths.
// A category of another owner is reported as ErrNotFound.
func (s *Service) Rename(ctx context.Context, ownerID, id uuid.UUID, name string) (*models.Category, error) {
	var (
		renamed     *models.Category
		descendants int
	)
	err := s.mutate(ctx, ownerID, "rename", func(acc store.CategoryAccessor) error {
		if err := s.guard(ctx, acc, id, ownerID); err != nil {
			return err
		}
		c, n, err := NewEngine(acc).Rename(ctx, id, name)
		renamed, descendants = c, n
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCascade("rename", descendants)
	slog.Info("category renamed",
		"owner_id", ownerID,
		"id", id,
		"path", renamed.Path,
		"descendants", descendants,
	)
	return renamed, nil
}

// Delete removes a category of ownerID with its whole subtree and returns
// the number of removed nodes. A category of another owner is reported as
// ErrNotFound.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) (int, error) {
	var removed []uuid.UUID
	err := s.mutate(ctx, ownerID, "delete", func(acc store.CategoryAccessor) error {
		if err := s.guard(ctx, acc, id, ownerID); err != nil {
			return err
		}
		ids, err := NewEngine(acc).Delete(ctx, id)
		removed = ids
		return err
	})
	if err != nil {
		return 0, err
	}

	s.metrics.ObserveCascade("delete", len(removed)-1)
	slog.Info("category deleted",
		"owner_id", ownerID,
		"id", id,
		"removed", len(removed),
	)

	if s.purger != nil {
		if err := s.purger.PurgeCategories(ctx, ownerID, removed); err != nil {
			slog.Warn("category documents purge failed",
				"owner_id", ownerID,
				"id", id,
				"error", err,
			)
		}
	}
	return len(removed), nil
}

// Get returns a single category of ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Category, error) {
	c, err := repository{acc: s.acc}.ownedBy(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// BelongsToOwner reports whether id is a category in ownerID's forest.
func (s *Service) BelongsToOwner(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	return BelongsToOwner(ctx, s.acc, id, ownerID)
}

// Tree returns ownerID's forest. Concurrent reads for the same owner share
// one assembly.
func (s *Service) Tree(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	var cacheGen int64
	if s.cache != nil {
		forest, g, ok := s.cache.Get(ctx, ownerID)
		s.metrics.ObserveForestCache(ok)
		if ok {
			return forest, nil
		}
		cacheGen = g
	}

	// Reads started before a committed mutation, here or in another process
	// sharing the cache, run under an older generation and are never joined
	// by later callers.
	gen := s.generation(ownerID)
	key := ownerID.String() + ":" + strconv.FormatUint(gen, 10) + ":" + strconv.FormatInt(cacheGen, 10)
	v, err, _ := s.reads.Do(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		forest, err := BuildForest(shared, s.acc, ownerID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cacheIfCurrent(shared, ownerID, gen, cacheGen, forest)
		}
		return forest, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Category), nil
}

// guard rejects ids outside ownerID's forest.
func (s *Service) guard(ctx context.Context, acc store.CategoryAccessor, id, ownerID uuid.UUID) error {
	ok, err := BelongsToOwner(ctx, acc, id, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// mutate runs fn exclusively for ownerID, inside a storage transaction
// when available, then records the outcome and drops the cached forest.
func (s *Service) mutate(ctx context.Context, ownerID uuid.UUID, op string, fn func(store.CategoryAccessor) error) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	var err error
	tx, transactional := s.acc.(store.CategoryTransactor)
	if transactional {
		err = tx.WithinOwner(ctx, ownerID, fn)
	} else {
		err = fn(s.acc)
	}
	err = asStorage(op, err)

	s.metrics.ObserveMutation(op, resultLabel(err))
	if err != nil && IsStorage(err) {
		slog.Error("category mutation failed",
			"op", op,
			"owner_id", ownerID,
			"error", err,
		)
	}

	// Without a transaction a failed cascade keeps its partial writes.
	if err == nil || (!transactional && IsStorage(err)) {
		s.bumpGeneration(ownerID)
		if s.cache != nil {
			s.cache.Invalidate(context.WithoutCancel(ctx), ownerID)
		}
	}
	return err
}

func (s *Service) generation(ownerID uuid.UUID) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[ownerID]
}

// cacheIfCurrent stores forest under cacheGen unless a mutation in this
// process committed since gen was read. Holding genMu across the check and
// the write orders it against bumpGeneration. Mutations in other processes
// are caught by cacheGen instead.
func (s *Service) cacheIfCurrent(ctx context.Context, ownerID uuid.UUID, gen uint64, cacheGen int64, forest []models.Category) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[ownerID] == gen {
		s.cache.Set(ctx, ownerID, cacheGen, forest)
	}
}

func (s *Service) bumpGeneration(ownerID uuid.UUID) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.gens[ownerID]++
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrInvalidParent), errors.Is(err, ErrInvalidName):
		return metrics.ResultInvalid
	default:
		return metrics.ResultStorageError
	}
}
