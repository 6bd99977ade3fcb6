package reports

import (
	"context"

	"memorial/internal/domain/billing"
)

// Repository provides the data the reports aggregate.
type Repository interface {
	AllContracts(ctx context.Context) ([]*billing.Contract, error)
	Payments(ctx context.Context, filter billing.PaymentFilter) ([]*billing.Payment, error)
}

// BillingSource adapts the billing repositories to Repository.
type BillingSource struct {
	Contracts interface {
		Find(ctx context.Context, where map[string]any) ([]*billing.Contract, error)
	}
	PaymentRepo billing.PaymentRepository
}

// AllContracts implements Repository.
func (b BillingSource) AllContracts(ctx context.Context) ([]*billing.Contract, error) {
	return b.Contracts.Find(ctx, nil)
}

// Payments implements Repository.
func (b BillingSource) Payments(ctx context.Context, filter billing.PaymentFilter) ([]*billing.Payment, error) {
	return b.PaymentRepo.List(ctx, filter)
}
