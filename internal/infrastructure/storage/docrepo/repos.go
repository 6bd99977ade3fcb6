package docrepo

import (
	"context"

	"memorial/internal/core/apperror"
	"memorial/internal/core/docstore"
	"memorial/internal/domain/billing"
	"memorial/internal/domain/catalog"
	"memorial/internal/domain/clients"
)

// Ensure compile-time interface compliance.
var (
	_ billing.ContractRepository = (*BaseRepo[*billing.Contract])(nil)
	_ billing.PaymentRepository  = (*PaymentRepo)(nil)
	_ catalog.Repository         = (*BaseRepo[*catalog.Item])(nil)
	_ clients.Repository         = (*BaseRepo[*clients.Client])(nil)
)

// NewContractRepo stores contracts.
func NewContractRepo(store docstore.Store) *BaseRepo[*billing.Contract] {
	return NewBaseRepo(store, CollectionContracts, "contract", func() *billing.Contract { return &billing.Contract{} })
}

// NewCatalogRepo stores catalog items.
func NewCatalogRepo(store docstore.Store) *BaseRepo[*catalog.Item] {
	return NewBaseRepo(store, CollectionCatalog, "catalog item", func() *catalog.Item { return &catalog.Item{} })
}

// NewClientRepo stores clients.
func NewClientRepo(store docstore.Store) *BaseRepo[*clients.Client] {
	return NewBaseRepo(store, CollectionClients, "client", func() *clients.Client { return &clients.Client{} })
}

// PaymentRepo stores payments with store-assigned timestamps.
type PaymentRepo struct {
	base *BaseRepo[*billing.Payment]
}

// NewPaymentRepo creates a payment repository.
func NewPaymentRepo(store docstore.Store) *PaymentRepo {
	return &PaymentRepo{
		base: NewBaseRepo(store, CollectionPayments, "payment", func() *billing.Payment { return &billing.Payment{} }),
	}
}

// Create implements billing.PaymentRepository.
func (r *PaymentRepo) Create(ctx context.Context, p *billing.Payment) error {
	doc, err := docstore.Encode(p)
	if err != nil {
		return apperror.NewInternal(err)
	}
	doc["timestamp"] = docstore.ServerTimestamp
	return r.base.CreateDocument(ctx, doc, p)
}

// List implements billing.PaymentRepository.
func (r *PaymentRepo) List(ctx context.Context, filter billing.PaymentFilter) ([]*billing.Payment, error) {
	where := map[string]any{}
	if filter.ContractID != "" {
		where["contractId"] = filter.ContractID
	}
	if filter.AgentID != "" {
		where["agentId"] = filter.AgentID
	}

	all, err := r.base.Find(ctx, where)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, p := range all {
		if !filter.From.IsZero() && p.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.Timestamp.After(filter.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
