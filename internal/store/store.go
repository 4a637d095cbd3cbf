package store

import (
	"context"
	"errors"

	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/queryir"
)

// ErrNotFound is returned by Put when no record has the given id.
var ErrNotFound = errors.New("record not found")

// Store holds the ordered records of one collection.
type Store interface {
	// Insert assigns the next id to rec, appends it and returns the stored copy.
	// Any id already present in rec is overwritten.
	Insert(ctx context.Context, rec ir.IRObject) (ir.IRObject, error)

	// Get returns the record with the given id.
	Get(ctx context.Context, id int64) (ir.IRObject, bool, error)

	// Put replaces the record whose id matches rec's id, keeping its position.
	Put(ctx context.Context, rec ir.IRObject) error

	// Delete removes the record with the given id, reporting whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Scan returns the records matching p in insertion order. A nil
	// predicate returns every record. The result is never nil.
	Scan(ctx context.Context, p queryir.Predicate) ([]ir.IRObject, error)

	// Len returns the number of records.
	Len(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates an empty store for the named backend.
// The sqlite backend always opens a private in-memory database.
func Open(backend string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(":memory:")
	default:
		return nil, errors.New("unknown store backend: " + backend)
	}
}
