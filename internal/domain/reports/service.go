package reports

import (
	"context"
	"fmt"
	"sort"

	"memorial/internal/core/apperror"
	"memorial/internal/core/types"
	"memorial/internal/domain/billing"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AgentCommissions sums payments per collecting agent within the period,
// sorted by agent name.
func (s *Service) AgentCommissions(ctx context.Context, filter CommissionsFilter) (*AgentCommissionsReport, error) {
	if !filter.FromDate.IsZero() && !filter.ToDate.IsZero() && filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	payments, err := s.repo.Payments(ctx, billing.PaymentFilter{From: filter.FromDate, To: filter.ToDate})
	if err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}

	rows := make(map[string]*AgentCommissionRow)
	for _, p := range payments {
		row, ok := rows[p.AgentID]
		if !ok {
			row = &AgentCommissionRow{
				AgentID:          p.AgentID,
				AgentName:        p.AgentName,
				AmountPaid:       types.Zero(),
				CommissionAmount: types.Zero(),
				NetAmount:        types.Zero(),
			}
			rows[p.AgentID] = row
		}
		row.Payments++
		row.Installments += p.InstallmentCount
		row.AmountPaid = row.AmountPaid.Add(p.AmountPaid)
		row.CommissionAmount = row.CommissionAmount.Add(p.CommissionAmount)
		row.NetAmount = row.NetAmount.Add(p.NetAmount)
	}

	report := &AgentCommissionsReport{
		Items:           make([]AgentCommissionRow, 0, len(rows)),
		TotalAmountPaid: types.Zero(),
		TotalCommission: types.Zero(),
		TotalNet:        types.Zero(),
	}
	if !filter.FromDate.IsZero() {
		report.FromDate = &filter.FromDate
	}
	if !filter.ToDate.IsZero() {
		report.ToDate = &filter.ToDate
	}
	for _, row := range rows {
		report.Items = append(report.Items, *row)
		report.TotalAmountPaid = report.TotalAmountPaid.Add(row.AmountPaid)
		report.TotalCommission = report.TotalCommission.Add(row.CommissionAmount)
		report.TotalNet = report.TotalNet.Add(row.NetAmount)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].AgentName == report.Items[j].AgentName {
			return report.Items[i].AgentID < report.Items[j].AgentID
		}
		return report.Items[i].AgentName < report.Items[j].AgentName
	})

	return report, nil
}

// ContractSummary counts contracts per status and totals what is still owed.
func (s *Service) ContractSummary(ctx context.Context) (*ContractSummary, error) {
	contracts, err := s.repo.AllContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get contracts: %w", err)
	}

	byStatus := make(map[string]*StatusRow)
	summary := &ContractSummary{
		TotalContracts: len(contracts),
		ByStatus:       []StatusRow{},
		Outstanding:    types.Zero(),
	}
	for _, c := range contracts {
		row, ok := byStatus[string(c.Status)]
		if !ok {
			row = &StatusRow{Status: string(c.Status), Outstanding: types.Zero()}
			byStatus[string(c.Status)] = row
		}
		row.Count++
		row.Outstanding = row.Outstanding.Add(c.Amount)

		summary.Outstanding = summary.Outstanding.Add(c.Amount)
		summary.InstallmentsRemaining += c.InstallmentsRemaining
		if c.IsPaidOff() {
			summary.PaidOff++
		}
	}
	for _, row := range byStatus {
		summary.ByStatus = append(summary.ByStatus, *row)
	}
	sort.Slice(summary.ByStatus, func(i, j int) bool {
		return summary.ByStatus[i].Status < summary.ByStatus[j].Status
	})

	return summary, nil
}
