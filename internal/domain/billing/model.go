// Package billing holds the contract-and-payment lifecycle: installment
// schedules computed from catalog items, payments that reduce a contract's
// balance and remaining installments, and the collecting agent's commission.
package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"memorial/internal/core/apperror"
	"memorial/internal/core/entity"
	"memorial/internal/core/types"
	"memorial/internal/domain/catalog"
)

// Source tells which creation path produced a contract. It selects the
// installment rate.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceManual  Source = "manual"
)

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	return s == SourceCatalog || s == SourceManual
}

// Status is a display label; no transitions are enforced.
type Status string

const (
	StatusPending  Status = "Pendiente"
	StatusApproved Status = "Aprobada"
	StatusRejected Status = "Rechazada"
	StatusActive   Status = "Vigente"
	StatusExpired  Status = "Vencida"
)

// Item is a snapshot of a catalog item folded into a contract.
type Item struct {
	ItemID   string           `json:"itemId,omitempty"`
	ItemType catalog.ItemType `json:"itemType"`
	Name     string           `json:"name"`
	Price    types.Money      `json:"price"`
}

// ItemFromCatalog snapshots a catalog item.
func ItemFromCatalog(ci *catalog.Item) Item {
	return Item{
		ItemID:   ci.ID,
		ItemType: ci.Type,
		Name:     ci.Name,
		Price:    ci.Price,
	}
}

func (i Item) validate() error {
	if i.ItemType != "" && !i.ItemType.IsValid() {
		return apperror.NewValidation("invalid item type").
			WithDetail("field", "itemType").
			WithDetail("value", string(i.ItemType))
	}
	if i.Price.IsNegative() {
		return apperror.NewValidation("item price must not be negative").
			WithDetail("field", "price").
			WithDetail("value", i.Price.String())
	}
	return nil
}

// Contract ties a client to catalog items with a balance paid off in
// installments.
type Contract struct {
	entity.BaseEntity

	Number   string `json:"number"`
	ClientID string `json:"clientId"`
	Items    []Item `json:"items"`

	// Amount is the outstanding balance, never negative.
	Amount types.Money `json:"amount"`

	// InstallmentRate is the fraction the schedule was computed with.
	InstallmentRate       decimal.Decimal `json:"installmentRate"`
	InstallmentAmount     types.Money     `json:"installmentAmount"`
	InstallmentsTotal     int             `json:"installmentsTotal"`
	InstallmentsRemaining int             `json:"installmentsRemaining"`

	// legacyCounter is set for contracts stored without installmentsRemaining.
	// Their countdown is InstallmentsTotal and they are saved in that shape.
	legacyCounter bool

	CommissionPercent *decimal.Decimal `json:"commissionPercent,omitempty"`

	Source    Source     `json:"source"`
	Status    Status     `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Comment   string     `json:"comment,omitempty"`
}

// storedContract has Contract's fields without its JSON methods.
type storedContract Contract

// UnmarshalJSON marks documents that lack installmentsRemaining as legacy.
func (c *Contract) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*storedContract)(c)); err != nil {
		return err
	}
	_, hasRemaining := keys["installmentsRemaining"]
	c.legacyCounter = !hasRemaining
	return nil
}

// MarshalJSON omits installmentsRemaining for legacy contracts.
func (c *Contract) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal((*storedContract)(c))
	if err != nil || !c.legacyCounter {
		return raw, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "installmentsRemaining")
	return json.Marshal(fields)
}

// applyTerms resets the schedule to t. A recomputed schedule always tracks
// installmentsRemaining.
func (c *Contract) applyTerms(t Terms) {
	c.legacyCounter = false
	c.InstallmentAmount = t.InstallmentAmount
	c.InstallmentsTotal = t.InstallmentsTotal
	c.InstallmentsRemaining = t.InstallmentsTotal
}

// IsPaidOff reports whether nothing is owed.
func (c *Contract) IsPaidOff() bool {
	return !c.Amount.IsPositive()
}

// Validate implements entity.Validatable interface.
func (c *Contract) Validate(ctx context.Context) error {
	if c.ClientID == "" {
		return apperror.NewValidation("clientId is required").WithDetail("field", "clientId")
	}
	if c.Amount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").WithDetail("field", "amount")
	}
	if c.InstallmentsRemaining < 0 || c.InstallmentsRemaining > c.InstallmentsTotal {
		return apperror.NewValidation("installmentsRemaining out of range").
			WithDetail("installmentsRemaining", c.InstallmentsRemaining).
			WithDetail("installmentsTotal", c.InstallmentsTotal)
	}
	if !c.Source.IsValid() {
		return apperror.NewValidation("invalid source").WithDetail("field", "source")
	}
	for _, item := range c.Items {
		if err := item.validate(); err != nil {
			return err
		}
	}
	return nil
}

// auditState is the subset of fields tracked in the audit trail.
func (c *Contract) auditState() map[string]any {
	return map[string]any{
		"amount":                c.Amount.String(),
		"installmentAmount":     c.InstallmentAmount.String(),
		"installmentsTotal":     c.InstallmentsTotal,
		"installmentsRemaining": c.InstallmentsRemaining,
		"items":                 len(c.Items),
		"status":                string(c.Status),
	}
}

// Payment is an immutable record of installments collected by an agent.
type Payment struct {
	entity.BaseEntity

	Number            string          `json:"number"`
	ContractID        string          `json:"contractId"`
	AgentID           string          `json:"agentId"`
	AgentName         string          `json:"agentName"`
	InstallmentCount  int             `json:"installmentCount"`
	InstallmentAmount types.Money     `json:"installmentAmount"`
	AmountPaid        types.Money     `json:"amountPaid"`
	CommissionPercent decimal.Decimal `json:"commissionPercent"`
	CommissionAmount  types.Money     `json:"commissionAmount"`
	NetAmount         types.Money     `json:"netAmount"`

	// Timestamp is assigned by the store on creation.
	Timestamp time.Time `json:"timestamp"`
}

// Agent identifies who collected a payment.
type Agent struct {
	ID   string
	Name string
}
