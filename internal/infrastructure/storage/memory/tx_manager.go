package memory

import (
	"context"
	"sync"

	"memorial/internal/core/tx"
)

// Compile-time check that TxManager implements tx.Manager interface.
var _ tx.Manager = (*TxManager)(nil)

type txKey struct{}

// TxManager serialises transactions against a Store and undoes the writes fn
// made when it fails. Calls made outside RunInTransaction are not blocked and
// survive a rollback.
type TxManager struct {
	store *Store
	mu    sync.Mutex
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j := newJournal()
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		m.store.rollback(j)
		return err
	}
	return nil
}
