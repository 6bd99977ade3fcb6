// Package catalog provides the catalog of coffin/urn models and service
// packages that contracts are built from. Items are consumed (removed)
// once bound to a contract.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"memorial/internal/core/apperror"
	"memorial/internal/core/entity"
	"memorial/internal/core/validation"
)

// ItemType distinguishes physical models from service packages.
type ItemType string

const (
	TypeModel   ItemType = "model"
	TypeService ItemType = "service"
)

// IsValid reports whether t is a known item type.
func (t ItemType) IsValid() bool {
	return t == TypeModel || t == TypeService
}

// Item is a catalog entry.
type Item struct {
	entity.BaseEntity

	Type        ItemType        `json:"type" validate:"required,oneof=model service"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description,omitempty" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
}

// NewItem creates a catalog item.
func NewItem(itemType ItemType, name string, price decimal.Decimal) *Item {
	return &Item{
		BaseEntity: entity.NewBaseEntity(),
		Type:       itemType,
		Name:       name,
		Price:      price,
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(ctx context.Context) error {
	if err := validation.Struct(i); err != nil {
		return err
	}
	if i.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price").
			WithDetail("value", i.Price.String())
	}
	return nil
}
