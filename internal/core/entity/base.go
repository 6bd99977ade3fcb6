// Package entity provides the fields shared by every stored record.
package entity

import (
	"context"
	"time"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without store access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all stored documents.
// ID and Version are owned by the document store: ID is assigned on create,
// Version is incremented on every update and used for optimistic locking.
type BaseEntity struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBaseEntity creates a BaseEntity stamped with the current time.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// GetID returns the entity ID.
func (b *BaseEntity) GetID() string {
	return b.ID
}

// GetVersion returns the stored version used for optimistic locking.
func (b *BaseEntity) GetVersion() int {
	return b.Version
}

// Record is implemented by every entity persisted in the document store.
type Record interface {
	GetID() string
	GetVersion() int
}
