// Package docrepo implements the domain repositories on top of a
// docstore.Store, so the same code runs against postgres and memory.
package docrepo

import (
	"context"
	"errors"
	"fmt"

	"memorial/internal/core/apperror"
	"memorial/internal/core/docstore"
	"memorial/internal/core/entity"
	"memorial/internal/domain"
)

// Collection names.
const (
	CollectionContracts = "contracts"
	CollectionPayments  = "payments"
	CollectionCatalog   = "catalog"
	CollectionClients   = "clients"
	CollectionAudit     = "audit"
)

// BaseRepo provides CRUD for one collection. T is a pointer to a JSON-tagged
// struct embedding entity.BaseEntity.
type BaseRepo[T entity.Record] struct {
	store      docstore.Store
	collection string
	entityName string
	newFn      func() T
}

// NewBaseRepo creates a repository; newFn must return a fresh zero entity.
func NewBaseRepo[T entity.Record](store docstore.Store, collection, entityName string, newFn func() T) *BaseRepo[T] {
	return &BaseRepo[T]{
		store:      store,
		collection: collection,
		entityName: entityName,
		newFn:      newFn,
	}
}

// Collection returns the collection name.
func (r *BaseRepo[T]) Collection() string {
	return r.collection
}

// Create inserts e and reloads it so store-managed fields are filled in.
func (r *BaseRepo[T]) Create(ctx context.Context, e T) error {
	doc, err := docstore.Encode(e)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return r.CreateDocument(ctx, doc, e)
}

// CreateDocument inserts an already encoded document and decodes the stored
// result into e. Used when callers need sentinel values in doc.
func (r *BaseRepo[T]) CreateDocument(ctx context.Context, doc docstore.Document, e T) error {
	newID, err := r.store.Create(ctx, r.collection, doc)
	if err != nil {
		return r.mapError("create", "", err)
	}
	return r.reload(ctx, newID, e)
}

// GetByID retrieves entity by ID.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID string) (T, error) {
	e := r.newFn()
	doc, err := r.store.Get(ctx, r.collection, entityID)
	if err != nil {
		var zero T
		return zero, r.mapError("get", entityID, err)
	}
	if err := docstore.Decode(doc, e); err != nil {
		var zero T
		return zero, apperror.NewInternal(err).WithDetail("entity", r.entityName)
	}
	return e, nil
}

// Update writes every field of e, conditional on e's version.
func (r *BaseRepo[T]) Update(ctx context.Context, e T) error {
	doc, err := docstore.Encode(e)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return r.UpdateFields(ctx, e, doc)
}

// UpdateFields merges fields into the stored entity, conditional on e's
// version, then reloads e.
func (r *BaseRepo[T]) UpdateFields(ctx context.Context, e T, fields docstore.Document) error {
	var opts []docstore.UpdateOption
	if v := e.GetVersion(); v > 0 {
		opts = append(opts, docstore.IfVersion(v))
	}
	if err := r.store.Update(ctx, r.collection, e.GetID(), fields, opts...); err != nil {
		return r.mapError("update", e.GetID(), err)
	}
	return r.reload(ctx, e.GetID(), e)
}

// Delete removes the entity.
func (r *BaseRepo[T]) Delete(ctx context.Context, entityID string) error {
	if err := r.store.Delete(ctx, r.collection, entityID); err != nil {
		return r.mapError("delete", entityID, err)
	}
	return nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	all, err := r.Find(ctx, filter.Fields)
	if err != nil {
		return domain.ListResult[T]{}, err
	}

	result := domain.ListResult[T]{
		TotalCount: int64(len(all)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	start := min(max(filter.Offset, 0), len(all))
	end := len(all)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(all))
	}
	result.Items = all[start:end]
	return result, nil
}

// Find returns every entity matching the equality conditions.
func (r *BaseRepo[T]) Find(ctx context.Context, where map[string]any) ([]T, error) {
	docs, err := r.store.Query(ctx, r.collection, docstore.Filter(where))
	if err != nil {
		return nil, r.mapError("query", "", err)
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		e := r.newFn()
		if err := docstore.Decode(doc, e); err != nil {
			return nil, apperror.NewInternal(err).WithDetail("entity", r.entityName)
		}
		items = append(items, e)
	}
	return items, nil
}

// Exists checks if entity with given ID exists.
func (r *BaseRepo[T]) Exists(ctx context.Context, entityID string) (bool, error) {
	_, err := r.store.Get(ctx, r.collection, entityID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, docstore.ErrNotFound):
		return false, nil
	default:
		return false, r.mapError("get", entityID, err)
	}
}

func (r *BaseRepo[T]) reload(ctx context.Context, entityID string, e T) error {
	doc, err := r.store.Get(ctx, r.collection, entityID)
	if err != nil {
		return r.mapError("get", entityID, err)
	}
	if err := docstore.Decode(doc, e); err != nil {
		return apperror.NewInternal(err).WithDetail("entity", r.entityName)
	}
	return nil
}

// mapError converts store errors into AppErrors.
func (r *BaseRepo[T]) mapError(op, entityID string, err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return apperror.NewNotFound(r.entityName, entityID).WithCause(err)
	case errors.Is(err, docstore.ErrVersionConflict):
		return apperror.NewConcurrentModification(r.entityName, entityID).WithCause(err)
	case errors.Is(err, docstore.ErrAlreadyExists):
		return apperror.NewConflict(fmt.Sprintf("%s already exists", r.entityName)).
			WithDetail("id", entityID).WithCause(err)
	default:
		return apperror.NewStore(fmt.Sprintf("%s %s", op, r.collection), err)
	}
}
