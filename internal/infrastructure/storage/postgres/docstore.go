package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"memorial/internal/core/docstore"
	"memorial/internal/core/id"
)

const (
	documentsTable = "documents"

	// pgUniqueViolation is the SQLSTATE for duplicate keys.
	pgUniqueViolation = "23505"
)

// Compile-time check.
var _ docstore.Store = (*DocumentStore)(nil)

// documentRow is one row of the documents table.
type documentRow struct {
	ID      string `db:"id"`
	Data    []byte `db:"data"`
	Version int    `db:"version"`
}

// DocumentStore keeps every collection in a single JSONB table.
// Writes join the transaction carried by ctx, if any.
type DocumentStore struct {
	txm *TxManager
	now func() time.Time
}

// NewDocumentStore creates a store that runs its statements through txm.
func NewDocumentStore(txm *TxManager) *DocumentStore {
	return &DocumentStore{
		txm: txm,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (s *DocumentStore) span(ctx context.Context, op, collection string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "docstore."+op,
		trace.WithAttributes(attribute.String("docstore.collection", collection)))
}

// Create implements docstore.Store.
func (s *DocumentStore) Create(ctx context.Context, collection string, data docstore.Document) (string, error) {
	ctx, span := s.span(ctx, "create", collection)
	defer span.End()

	docID, _ := data[docstore.KeyID].(string)
	if docID == "" {
		docID = id.NewString()
	}
	doc := s.prepare(data)

	sql, args, err := buildInsert(collection, docID, doc)
	if err != nil {
		return "", err
	}

	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return "", fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrAlreadyExists)
		}
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return docID, nil
}

// Get implements docstore.Store.
func (s *DocumentStore) Get(ctx context.Context, collection, docID string) (docstore.Document, error) {
	ctx, span := s.span(ctx, "get", collection)
	defer span.End()

	sql, args, err := builder().
		Select("id", "data", "version").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": docID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", collection, err)
	}
	return row.document()
}

// Query implements docstore.Store.
func (s *DocumentStore) Query(ctx context.Context, collection string, where docstore.Filter) ([]docstore.Document, error) {
	ctx, span := s.span(ctx, "query", collection)
	defer span.End()

	sql, args, err := buildQuery(collection, where)
	if err != nil {
		return nil, err
	}

	var rows []documentRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	out := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Update implements docstore.Store.
func (s *DocumentStore) Update(ctx context.Context, collection, docID string, fields docstore.Document, opts ...docstore.UpdateOption) error {
	ctx, span := s.span(ctx, "update", collection)
	defer span.End()

	patch := s.prepare(fields)

	o := docstore.ApplyUpdateOptions(opts...)
	sql, args, err := buildUpdate(collection, docID, patch, o.ExpectedVersion)
	if err != nil {
		return err
	}

	querier := s.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	exists, err := s.exists(ctx, collection, docID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrNotFound)
	}
	return fmt.Errorf("%s/%s: expected version %d: %w", collection, docID, o.ExpectedVersion, docstore.ErrVersionConflict)
}

// Delete implements docstore.Store.
func (s *DocumentStore) Delete(ctx context.Context, collection, docID string) error {
	ctx, span := s.span(ctx, "delete", collection)
	defer span.End()

	sql, args, err := builder().
		Delete(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, docID, docstore.ErrNotFound)
	}
	return nil
}

// Increment implements docstore.Store with a single upsert, so concurrent
// callers queue on the row lock instead of failing a version check.
func (s *DocumentStore) Increment(ctx context.Context, collection, docID, field string, delta int64) (int64, error) {
	ctx, span := s.span(ctx, "increment", collection)
	defer span.End()

	sql, args, err := buildIncrement(collection, docID, field, delta)
	if err != nil {
		return 0, err
	}

	var value int64
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment %s/%s: %w", collection, docID, err)
	}
	return value, nil
}

// prepare strips reserved keys and resolves ServerTimestamp with the
// process clock (UTC), not the database clock.
func (s *DocumentStore) prepare(fields docstore.Document) docstore.Document {
	doc := docstore.Clone(fields)
	delete(doc, docstore.KeyID)
	delete(doc, docstore.KeyVersion)
	docstore.ResolveServerTimestamps(doc, s.now())
	return doc
}

func (s *DocumentStore) exists(ctx context.Context, collection, docID string) (bool, error) {
	sql, args, err := builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection, "id": docID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var exists bool
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", collection, err)
	}
	return exists, nil
}

func (r documentRow) document() (docstore.Document, error) {
	doc, err := docstore.DecodeJSON(r.Data)
	if err != nil {
		return nil, err
	}
	doc[docstore.KeyID] = r.ID
	doc[docstore.KeyVersion] = r.Version
	return doc, nil
}

// --- SQL builders (kept pure for tests) ---

func buildInsert(collection, docID string, doc docstore.Document) (string, []any, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", nil, fmt.Errorf("marshal document: %w", err)
	}

	sql, args, err := builder().
		Insert(documentsTable).
		Columns("collection", "id", "data").
		Values(collection, docID, string(payload)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return sql, args, nil
}

func buildQuery(collection string, where docstore.Filter) (string, []any, error) {
	q := builder().
		Select("id", "data", "version").
		From(documentsTable).
		Where(squirrel.Eq{"collection": collection})

	if len(where) > 0 {
		filter, err := json.Marshal(where)
		if err != nil {
			return "", nil, fmt.Errorf("marshal filter: %w", err)
		}
		q = q.Where(squirrel.Expr("data @> ?::jsonb", string(filter)))
	}

	sql, args, err := q.OrderBy("id ASC").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

func buildUpdate(collection, docID string, patch docstore.Document, expectedVersion int) (string, []any, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return "", nil, fmt.Errorf("marshal patch: %w", err)
	}

	q := builder().
		Update(documentsTable).
		Set("data", squirrel.Expr("data || ?::jsonb", string(payload))).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"collection": collection}).
		Where(squirrel.Eq{"id": docID})

	if expectedVersion > 0 {
		// optimistic lock: expect current version
		q = q.Where(squirrel.Eq{"version": expectedVersion})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build update: %w", err)
	}
	return sql, args, nil
}

func buildIncrement(collection, docID, field string, delta int64) (string, []any, error) {
	initial, err := json.Marshal(map[string]int64{field: delta})
	if err != nil {
		return "", nil, fmt.Errorf("marshal counter: %w", err)
	}

	sql, args, err := builder().
		Insert(documentsTable).
		Columns("collection", "id", "data").
		Values(collection, docID, string(initial)).
		Suffix(`ON CONFLICT (collection, id) DO UPDATE SET `+
			`data = documents.data || jsonb_build_object(?::text, COALESCE((documents.data->>?::text)::bigint, 0) + ?::bigint), `+
			`version = documents.version + 1, updated_at = NOW() `+
			`RETURNING (data->>?::text)::bigint`,
			field, field, delta, field).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build increment: %w", err)
	}
	return sql, args, nil
}
