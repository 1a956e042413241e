// Package store implements the local mirror of the GitLab catalog. It is the
// only writer of mirrored rows; all operations are transactional per call and
// idempotent.
package store

import (
	"fmt"

	"gorm.io/gorm"
)

// StorageError wraps any persistence fault. Callers never mask it; it
// propagates to the sync engine as a stage failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps a non-nil error in a StorageError.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store provides keyed access to the mirrored catalog.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by the given GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for migration and test setup.
func (s *Store) DB() *gorm.DB { return s.db }
