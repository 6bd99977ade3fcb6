package dto

import (
	"github.com/shopspring/decimal"

	"memorial/internal/domain/catalog"
)

// CreateCatalogItemRequest is the request body for creating a catalog item.
type CreateCatalogItemRequest struct {
	Type        string          `json:"type" binding:"required,oneof=model service"`
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price"`
}

// ToEntity converts DTO to domain entity.
func (r CreateCatalogItemRequest) ToEntity() *catalog.Item {
	item := catalog.NewItem(catalog.ItemType(r.Type), r.Name, r.Price)
	item.Description = r.Description
	return item
}

// CatalogItemResponse is the API representation of a catalog item.
type CatalogItemResponse struct {
	BaseResponse
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// FromCatalogItem maps a catalog item to its response.
func FromCatalogItem(i *catalog.Item) CatalogItemResponse {
	return CatalogItemResponse{
		BaseResponse: FromBase(i.BaseEntity),
		Type:         string(i.Type),
		Name:         i.Name,
		Description:  i.Description,
		Price:        i.Price,
	}
}
