// Package reports provides administrative statistics over contracts and
// payments.
package reports

import (
	"time"

	"memorial/internal/core/types"
)

// --- Agent Commissions Report ---

// CommissionsFilter defines the reporting period. Zero bounds are open.
type CommissionsFilter struct {
	FromDate time.Time
	ToDate   time.Time
}

// AgentCommissionRow aggregates the payments collected by one agent.
type AgentCommissionRow struct {
	AgentID          string      `json:"agentId"`
	AgentName        string      `json:"agentName"`
	Payments         int         `json:"payments"`
	Installments     int         `json:"installments"`
	AmountPaid       types.Money `json:"amountPaid"`
	CommissionAmount types.Money `json:"commissionAmount"`
	NetAmount        types.Money `json:"netAmount"`
}

// AgentCommissionsReport is the full commissions report.
type AgentCommissionsReport struct {
	FromDate *time.Time           `json:"fromDate,omitempty"`
	ToDate   *time.Time           `json:"toDate,omitempty"`
	Items    []AgentCommissionRow `json:"items"`

	// Summary
	TotalAmountPaid types.Money `json:"totalAmountPaid"`
	TotalCommission types.Money `json:"totalCommission"`
	TotalNet        types.Money `json:"totalNet"`
}

// --- Contract Summary Report ---

// StatusRow counts contracts carrying one status label.
type StatusRow struct {
	Status      string      `json:"status"`
	Count       int         `json:"count"`
	Outstanding types.Money `json:"outstanding"`
}

// ContractSummary describes the contract portfolio.
type ContractSummary struct {
	TotalContracts        int         `json:"totalContracts"`
	ByStatus              []StatusRow `json:"byStatus"`
	Outstanding           types.Money `json:"outstanding"`
	InstallmentsRemaining int         `json:"installmentsRemaining"`
	PaidOff               int         `json:"paidOff"`
}
