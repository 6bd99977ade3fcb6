package dto

import (
	"memorial/internal/domain/clients"
)

// CreateClientRequest is the request body for creating a client.
type CreateClientRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	DocumentNumber string `json:"documentNumber" binding:"max=50"`
	Phone          string `json:"phone" binding:"max=50"`
	Email          string `json:"email" binding:"omitempty,email"`
	Address        string `json:"address" binding:"max=500"`
}

// ToEntity converts DTO to domain entity.
func (r CreateClientRequest) ToEntity() *clients.Client {
	c := clients.NewClient(r.Name)
	c.DocumentNumber = r.DocumentNumber
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	return c
}

// ClientResponse is the API representation of a client.
type ClientResponse struct {
	BaseResponse
	Name           string `json:"name"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
}

// FromClient maps a client to its response.
func FromClient(c *clients.Client) ClientResponse {
	return ClientResponse{
		BaseResponse:   FromBase(c.BaseEntity),
		Name:           c.Name,
		DocumentNumber: c.DocumentNumber,
		Phone:          c.Phone,
		Email:          c.Email,
		Address:        c.Address,
	}
}
