package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"memorial/internal/domain/billing"
)

// --- Request DTOs ---

// CreateContractRequest is the request body for creating a contract.
// Items are referenced by catalog id and snapshotted on creation. The
// source is manual when ManualAmount is set, catalog otherwise.
type CreateContractRequest struct {
	ClientID          string           `json:"clientId" binding:"required"`
	ItemIDs           []string         `json:"itemIds" binding:"omitempty,unique"`
	ManualAmount      *decimal.Decimal `json:"manualAmount"`
	Status            string           `json:"status"`
	StartDate         *time.Time       `json:"startDate"`
	EndDate           *time.Time       `json:"endDate"`
	Comment           string           `json:"comment" binding:"max=2000"`
	CommissionPercent *decimal.Decimal `json:"commissionPercent"`
}

// ToInput converts DTO to the service input; items are resolved by the handler.
func (r CreateContractRequest) ToInput(items []billing.Item) billing.CreateContractInput {
	return billing.CreateContractInput{
		ClientID:          r.ClientID,
		Items:             items,
		ManualAmount:      r.ManualAmount,
		Status:            billing.Status(r.Status),
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		Comment:           r.Comment,
		CommissionPercent: r.CommissionPercent,
	}
}

// AddItemRequest is the request body for adding a catalog item to a contract.
type AddItemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// SetStatusRequest is the request body for changing a contract status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ApplyPaymentRequest is the request body for registering a payment.
// The collecting agent comes from the X-Agent-ID / X-Agent-Name headers.
type ApplyPaymentRequest struct {
	InstallmentCount  int              `json:"installmentCount" binding:"required,gt=0"`
	CommissionPercent *decimal.Decimal `json:"commissionPercent"`
}

// TermsPreviewRequest is the request body for previewing a schedule.
type TermsPreviewRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source" binding:"omitempty,oneof=catalog manual"`
}

// ContractListRequest holds the contract list query parameters.
type ContractListRequest struct {
	PaginationRequest
	ClientID string `form:"clientId"`
	Status   string `form:"status"`
}

// --- Response DTOs ---

// ContractItemResponse is a contract item snapshot.
type ContractItemResponse struct {
	ItemID   string          `json:"itemId,omitempty"`
	ItemType string          `json:"itemType"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
}

// ContractResponse is the API representation of a contract.
type ContractResponse struct {
	BaseResponse
	Number                string                 `json:"number"`
	ClientID              string                 `json:"clientId"`
	Items                 []ContractItemResponse `json:"items"`
	Amount                decimal.Decimal        `json:"amount"`
	InstallmentRate       decimal.Decimal        `json:"installmentRate"`
	InstallmentAmount     decimal.Decimal        `json:"installmentAmount"`
	InstallmentsTotal     int                    `json:"installmentsTotal"`
	InstallmentsRemaining int                    `json:"installmentsRemaining"`
	CommissionPercent     *decimal.Decimal       `json:"commissionPercent,omitempty"`
	Source                string                 `json:"source"`
	Status                string                 `json:"status"`
	StartDate             *time.Time             `json:"startDate,omitempty"`
	EndDate               *time.Time             `json:"endDate,omitempty"`
	Comment               string                 `json:"comment,omitempty"`
}

// FromContract maps a contract to its response.
func FromContract(c *billing.Contract) ContractResponse {
	items := make([]ContractItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = ContractItemResponse{
			ItemID:   item.ItemID,
			ItemType: string(item.ItemType),
			Name:     item.Name,
			Price:    item.Price,
		}
	}
	return ContractResponse{
		BaseResponse:          FromBase(c.BaseEntity),
		Number:                c.Number,
		ClientID:              c.ClientID,
		Items:                 items,
		Amount:                c.Amount,
		InstallmentRate:       c.InstallmentRate,
		InstallmentAmount:     c.InstallmentAmount,
		InstallmentsTotal:     c.InstallmentsTotal,
		InstallmentsRemaining: c.InstallmentsRemaining,
		CommissionPercent:     c.CommissionPercent,
		Source:                string(c.Source),
		Status:                string(c.Status),
		StartDate:             c.StartDate,
		EndDate:               c.EndDate,
		Comment:               c.Comment,
	}
}

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	ID                string          `json:"id"`
	Number            string          `json:"number"`
	ContractID        string          `json:"contractId"`
	AgentID           string          `json:"agentId"`
	AgentName         string          `json:"agentName"`
	InstallmentCount  int             `json:"installmentCount"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	CommissionAmount  decimal.Decimal `json:"commissionAmount"`
	NetAmount         decimal.Decimal `json:"netAmount"`
	Timestamp         time.Time       `json:"timestamp"`
}

// FromPayment maps a payment to its response.
func FromPayment(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		Number:            p.Number,
		ContractID:        p.ContractID,
		AgentID:           p.AgentID,
		AgentName:         p.AgentName,
		InstallmentCount:  p.InstallmentCount,
		InstallmentAmount: p.InstallmentAmount,
		AmountPaid:        p.AmountPaid,
		CommissionPercent: p.CommissionPercent,
		CommissionAmount:  p.CommissionAmount,
		NetAmount:         p.NetAmount,
		Timestamp:         p.Timestamp,
	}
}

// TermsResponse is a schedule preview.
type TermsResponse struct {
	Amount            decimal.Decimal `json:"amount"`
	Rate              decimal.Decimal `json:"rate"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	InstallmentsTotal int             `json:"installmentsTotal"`
}
