// Package clients provides client records that contracts refer to.
package clients

import (
	"context"

	"memorial/internal/core/entity"
	"memorial/internal/core/validation"
)

// Client is a contract holder.
type Client struct {
	entity.BaseEntity

	Name           string `json:"name" validate:"required,max=200"`
	DocumentNumber string `json:"documentNumber,omitempty" validate:"max=50"`
	Phone          string `json:"phone,omitempty" validate:"max=50"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Address        string `json:"address,omitempty" validate:"max=500"`
}

// NewClient creates a client with required fields.
func NewClient(name string) *Client {
	return &Client{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
	}
}

// Validate implements entity.Validatable interface.
func (c *Client) Validate(ctx context.Context) error {
	return validation.Struct(c)
}
