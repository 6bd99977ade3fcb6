// Package docstore defines the document store the billing core reads from and
// writes to: collections of JSON-like documents addressed by string id, with
// equality queries and partial updates.
//
// Implementations live in infrastructure/storage (postgres, memory).
package docstore

import (
	"context"
	"errors"
	"time"
)

// Reserved document keys managed by the store.
const (
	KeyID      = "id"
	KeyVersion = "version"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrVersionConflict is returned by Update when IfVersion does not match.
	ErrVersionConflict = errors.New("docstore: version conflict")

	// ErrAlreadyExists is returned by Create when an explicit id is taken.
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Document is a single stored record. Values are JSON-compatible.
type Document map[string]any

// Filter selects documents whose top-level fields equal the given values.
// An empty filter matches every document in the collection.
type Filter map[string]any

// Store is the document store contract.
type Store interface {
	// Create inserts data and returns the assigned id. If data carries a
	// non-empty "id" it is used verbatim (ErrAlreadyExists if taken).
	Create(ctx context.Context, collection string, data Document) (string, error)

	// Get returns the document including its "id" and "version" keys.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns documents matching the filter, oldest first.
	Query(ctx context.Context, collection string, where Filter) ([]Document, error)

	// Update merges fields into the document's top level and bumps its version.
	Update(ctx context.Context, collection, id string, fields Document, opts ...UpdateOption) error

	// Delete removes the document.
	Delete(ctx context.Context, collection, id string) error

	// Increment atomically adds delta to an integer field and returns the new
	// value. A missing document is created with field = delta.
	Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error)
}

// UpdateOptions holds preconditions for Update.
type UpdateOptions struct {
	// ExpectedVersion, when > 0, makes the update conditional.
	ExpectedVersion int
}

// UpdateOption configures an Update call.
type UpdateOption func(*UpdateOptions)

// IfVersion makes the update succeed only if the stored version equals v.
func IfVersion(v int) UpdateOption {
	return func(o *UpdateOptions) {
		o.ExpectedVersion = v
	}
}

// ApplyUpdateOptions folds opts into UpdateOptions.
func ApplyUpdateOptions(opts ...UpdateOption) UpdateOptions {
	var o UpdateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp may be stored as a field value; the store replaces it with
// its own clock at write time.
var ServerTimestamp any = serverTimestamp{}

// ResolveServerTimestamps replaces ServerTimestamp sentinels among the
// top-level values of doc with now, in the same format encoding/json uses
// for time.Time.
func ResolveServerTimestamps(doc Document, now time.Time) {
	for k, v := range doc {
		if _, ok := v.(serverTimestamp); ok {
			doc[k] = now.UTC().Format(time.RFC3339Nano)
		}
	}
}
