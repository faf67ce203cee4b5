// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the target category does not exist or
	// belongs to another owner.
	ErrNotFound = errors.New("category not found")

	// ErrInvalidParent is returned when the referenced parent does not exist
	// or belongs to another owner.
	ErrInvalidParent = errors.New("invalid parent category")

	// ErrInvalidName is returned for empty, oversized or separator-bearing names.
	ErrInvalidName = errors.New("invalid category name")
)

// StorageError wraps a failure from the storage accessor. A cascade that
// fails with a StorageError outside a transaction may be partially applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("category storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorage reports whether err came from the storage layer. Storage errors
// are retryable; validation errors are not.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// asStorage wraps err in a StorageError unless it is already a domain error.
func asStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidParent) || errors.Is(err, ErrInvalidName) || IsStorage(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
