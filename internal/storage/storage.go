// Package storage persists extracted records: the canonical CSV dataset,
// streaming JSONL, per-record text exports and a MongoDB backend, with a
// fan-out wrapper for writing several at once.
package storage

import (
	"mercascan/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of records.
	Store(records []*types.Record) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
