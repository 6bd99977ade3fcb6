package domain

import (
	"context"
	"fmt"

	"memorial/internal/core/apperror"
	"memorial/internal/core/entity"
	"memorial/internal/core/tx"
	"memorial/pkg/logger"
)

// Entity is a stored record that can validate itself.
type Entity interface {
	entity.Record
	entity.Validatable
}

// RecordService provides the create/read/delete flow shared by reference
// records (catalog items, clients).
type RecordService[T Entity] struct {
	repo      RecordRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// RecordServiceConfig configures the record service.
type RecordServiceConfig[T Entity] struct {
	Repo       RecordRepository[T]
	TxManager  tx.Manager
	EntityName string
}

// NewRecordService creates a new record service.
func NewRecordService[T Entity](cfg RecordServiceConfig[T]) *RecordService[T] {
	return &RecordService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *RecordService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

func (s *RecordService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	// If entity already returns structured AppError, keep it.
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *RecordService[T]) normalizeGetErr(err error, entityID string) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", entityID)
}

// Create validates and stores a new entity.
func (s *RecordService[T]) Create(ctx context.Context, e T) error {
	// 1. Validate entity invariants
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	// 2. Run before-create hooks
	if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
		return err
	}

	// 3. Create in transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 4. Run after-create hooks (outside transaction)
	if err := s.hooks.Run(ctx, AfterCreate, e); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "id", e.GetID(), "error", err)
	}

	return nil
}

// GetByID retrieves entity by ID.
func (s *RecordService[T]) GetByID(ctx context.Context, entityID string) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// Delete removes the entity.
func (s *RecordService[T]) Delete(ctx context.Context, entityID string) error {
	// 1. Get entity first (for hooks)
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return s.normalizeGetErr(err, entityID)
	}

	// 2. Run before-delete hooks
	if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
		return err
	}

	// 3. Delete in transaction
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return s.normalizeGetErr(err, entityID)
	}

	// 4. Run after-delete hooks
	if err := s.hooks.Run(ctx, AfterDelete, e); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "id", entityID, "error", err)
	}

	return nil
}

// List retrieves entities with filtering.
func (s *RecordService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *RecordService[T]) Exists(ctx context.Context, entityID string) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}
