package catalog

import (
	"context"

	"memorial/internal/core/tx"
	"memorial/internal/domain"
	"memorial/pkg/logger"
)

// Repository is the storage contract for catalog items.
type Repository = domain.RecordRepository[*Item]

// Service provides catalog operations.
type Service struct {
	*domain.RecordService[*Item]
}

// NewService creates a catalog service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	svc := &Service{
		RecordService: domain.NewRecordService(domain.RecordServiceConfig[*Item]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "catalog item",
		}),
	}

	svc.Hooks().OnAfterCreate(func(ctx context.Context, item *Item) error {
		logger.Info(ctx, "catalog item created", "id", item.ID, "type", item.Type, "price", item.Price.String())
		return nil
	})
	svc.Hooks().OnAfterDelete(func(ctx context.Context, item *Item) error {
		logger.Info(ctx, "catalog item consumed", "id", item.ID, "type", item.Type, "name", item.Name)
		return nil
	})

	return svc
}

// List returns items, optionally restricted to one type.
func (s *Service) List(ctx context.Context, itemType ItemType, filter domain.ListFilter) (domain.ListResult[*Item], error) {
	if itemType != "" {
		filter = filter.Where("type", string(itemType))
	}
	return s.RecordService.List(ctx, filter)
}

// Consume removes an item once it has been bound to a contract.
func (s *Service) Consume(ctx context.Context, itemID string) error {
	return s.Delete(ctx, itemID)
}

// RemoveItem implements billing.CatalogConsumer.
func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	return s.Consume(ctx, itemID)
}
