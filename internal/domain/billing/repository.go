package billing

import (
	"context"
	"time"

	"memorial/internal/domain"
)

// ContractRepository stores contracts. Update is conditional on the
// contract's version and fails with CONCURRENT_MODIFICATION when stale.
type ContractRepository = domain.RecordRepository[*Contract]

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	ContractID string
	AgentID    string

	// From and To bound the store timestamp, inclusive. Zero means open.
	From time.Time
	To   time.Time
}

// PaymentRepository stores payments.
type PaymentRepository interface {
	// Create inserts p; the store assigns id and timestamp.
	Create(ctx context.Context, p *Payment) error

	// List returns payments matching the filter in storage order.
	List(ctx context.Context, filter PaymentFilter) ([]*Payment, error)
}

// CatalogConsumer removes catalog items once they are bound to a contract.
type CatalogConsumer interface {
	RemoveItem(ctx context.Context, itemID string) error
}
