package storage

import (
	"context"
	"errors"

	"paperlab/internal/domain"
)

// ErrIDMismatch is returned by Resolve when a fetch for one identifier
// yields a record for a different article. Such records are never cached.
// A versioned answer to a versionless request (2401.00001 → 2401.00001v2)
// is the same article and is accepted.
var ErrIDMismatch = errors.New("fetched paper has a different id")

// FetchFunc is a single-identifier external lookup.
type FetchFunc func(ctx context.Context, id string) (domain.Paper, error)

// ResultCache maps a paper identifier to its last fetched record.
// Entries live as long as the cache: there is no TTL and no capacity bound.
type ResultCache interface {
	// Put inserts or overwrites the record stored under p.ID.
	Put(ctx context.Context, p domain.Paper) error

	// Get is a pure lookup. The boolean is false on a miss.
	Get(ctx context.Context, id string) (domain.Paper, bool, error)

	// Resolve returns the cached record or, on a miss, calls fetch once,
	// stores the result and returns it. Fetch errors are returned as-is.
	Resolve(ctx context.Context, id string, fetch FetchFunc) (domain.Paper, error)

	// Close releases the underlying store.
	Close() error
}
