package clients

import (
	"context"
	"strings"

	"memorial/internal/core/tx"
	"memorial/internal/domain"
)

// Repository is the storage contract for clients.
type Repository = domain.RecordRepository[*Client]

// Service provides client operations.
type Service struct {
	*domain.RecordService[*Client]
}

// NewService creates a client service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	svc := &Service{
		RecordService: domain.NewRecordService(domain.RecordServiceConfig[*Client]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "client",
		}),
	}

	svc.Hooks().OnBeforeCreate(func(ctx context.Context, c *Client) error {
		c.Name = strings.TrimSpace(c.Name)
		c.DocumentNumber = strings.TrimSpace(c.DocumentNumber)
		c.Email = strings.ToLower(strings.TrimSpace(c.Email))
		return nil
	})

	return svc
}
