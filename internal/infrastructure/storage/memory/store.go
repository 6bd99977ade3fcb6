// Package memory provides an in-process document store.
// It backs the test suites and the STORAGE_DRIVER=memory development mode.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"memorial/internal/core/docstore"
	"memorial/internal/core/id"
)

type record struct {
	data    docstore.Document
	version int
}

// Store keeps documents in maps guarded by a RWMutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*record
	now         func() time.Time

	// failures lets tests inject errors per operation ("delete:catalog").
	failures map[string]error
}

// Compile-time check.
var _ docstore.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]*record),
		now:         func() time.Time { return time.Now().UTC() },
		failures:    make(map[string]error),
	}
}

// SetClock overrides the store clock used for ServerTimestamp.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailOn makes every op ("create", "get", "query", "update", "delete",
// "increment") on
// collection return err. Pass nil to clear.
func (s *Store) FailOn(op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := op + ":" + collection
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

func (s *Store) failure(op, collection string) error {
	return s.failures[op+":"+collection]
}

func (s *Store) collection(name string) map[string]*record {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]*record)
		s.collections[name] = c
	}
	return c
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, collection string, data docstore.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("create", collection); err != nil {
		return "", err
	}

	doc := docstore.Clone(data)
	docID, _ := doc[docstore.KeyID].(string)
	if docID == "" {
		docID = id.NewString()
	}
	delete(doc, docstore.KeyID)
	delete(doc, docstore.KeyVersion)
	docstore.ResolveServerTimestamps(doc, s.now())

	normalized, err := normalizeDocument(doc)
	if err != nil {
		return "", err
	}

	c := s.collection(collection)
	if _, exists := c[docID]; exists {
		return "", fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrAlreadyExists)
	}
	journalFrom(ctx).remember(c, collection, docID)
	c[docID] = &record{data: normalized, version: 1}

	return docID, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, docID string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("get", collection); err != nil {
		return nil, err
	}

	rec, ok := s.collections[collection][docID]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrNotFound)
	}
	return rec.materialize(docID), nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, collection string, where docstore.Filter) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("query", collection); err != nil {
		return nil, err
	}

	c := s.collections[collection]
	ids := make([]string, 0, len(c))
	for docID, rec := range c {
		if docstore.Matches(rec.data, where) {
			ids = append(ids, docID)
		}
	}
	// UUIDv7 ids sort by creation time.
	sort.Strings(ids)

	out := make([]docstore.Document, 0, len(ids))
	for _, docID := range ids {
		out = append(out, c[docID].materialize(docID))
	}
	return out, nil
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, docID string, fields docstore.Document, opts ...docstore.UpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("update", collection); err != nil {
		return err
	}

	rec, ok := s.collections[collection][docID]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrNotFound)
	}

	o := docstore.ApplyUpdateOptions(opts...)
	if o.ExpectedVersion > 0 && o.ExpectedVersion != rec.version {
		return fmt.Errorf("%s/%s: expected version %d, have %d: %w",
			collection, docID, o.ExpectedVersion, rec.version, docstore.ErrVersionConflict)
	}

	patch := docstore.Clone(fields)
	delete(patch, docstore.KeyID)
	delete(patch, docstore.KeyVersion)
	docstore.ResolveServerTimestamps(patch, s.now())

	normalized, err := normalizeDocument(patch)
	if err != nil {
		return err
	}
	journalFrom(ctx).remember(s.collections[collection], collection, docID)
	for k, v := range normalized {
		rec.data[k] = v
	}
	rec.version++

	return nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("delete", collection); err != nil {
		return err
	}

	c := s.collections[collection]
	if _, ok := c[docID]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrNotFound)
	}
	journalFrom(ctx).remember(c, collection, docID)
	delete(c, docID)
	return nil
}

// Increment implements docstore.Store.
func (s *Store) Increment(ctx context.Context, collection, docID, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("increment", collection); err != nil {
		return 0, err
	}

	c := s.collection(collection)
	journalFrom(ctx).remember(c, collection, docID)

	rec, ok := c[docID]
	if !ok {
		rec = &record{data: docstore.Document{}}
		c[docID] = rec
	}

	current, err := intValue(rec.data[field])
	if err != nil {
		return 0, fmt.Errorf("%s/%s.%s: %w", collection, docID, field, err)
	}
	next := current + delta
	rec.data[field] = json.Number(fmt.Sprint(next))
	rec.version++

	return next, nil
}

// Count returns the number of documents in collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (r *record) materialize(docID string) docstore.Document {
	doc := docstore.Clone(r.data)
	doc[docstore.KeyID] = docID
	doc[docstore.KeyVersion] = r.version
	return doc
}

func normalizeDocument(doc docstore.Document) (docstore.Document, error) {
	v, err := docstore.Normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return docstore.Document{}, nil
	}
	return docstore.Document(m), nil
}

func intValue(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return t.Int64()
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("not an integer: %T", v)
	}
}

// journal records the state each document had before a transaction first
// wrote it. A nil entry means the document did not exist.
type journal struct {
	prior map[string]map[string]*record
}

func newJournal() *journal {
	return &journal{prior: make(map[string]map[string]*record)}
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

// remember must be called under the store lock before docID is modified.
func (j *journal) remember(c map[string]*record, collection, docID string) {
	if j == nil {
		return
	}
	docs, ok := j.prior[collection]
	if !ok {
		docs = make(map[string]*record)
		j.prior[collection] = docs
	}
	if _, seen := docs[docID]; seen {
		return
	}
	if rec, ok := c[docID]; ok {
		docs[docID] = &record{data: docstore.Clone(rec.data), version: rec.version}
		return
	}
	docs[docID] = nil
}

// rollback restores the documents recorded in j. Documents the transaction
// never wrote are left as they are.
func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for collection, docs := range j.prior {
		c := s.collection(collection)
		for docID, rec := range docs {
			if rec == nil {
				delete(c, docID)
				continue
			}
			c[docID] = rec
		}
	}
}
