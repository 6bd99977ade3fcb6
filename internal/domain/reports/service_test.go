package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/core/apperror"
	"memorial/internal/core/types"
	"memorial/internal/domain/billing"
)

type fakeRepo struct {
	contracts []*billing.Contract
	payments  []*billing.Payment
	filter    billing.PaymentFilter
	err       error
}

func (f *fakeRepo) AllContracts(ctx context.Context) ([]*billing.Contract, error) {
	return f.contracts, f.err
}

func (f *fakeRepo) Payments(ctx context.Context, filter billing.PaymentFilter) ([]*billing.Payment, error) {
	f.filter = filter
	return f.payments, f.err
}

func payment(agentID, agentName, paid, commission string, count int) *billing.Payment {
	p := types.MustMoney(paid)
	c := types.MustMoney(commission)
	return &billing.Payment{
		AgentID:          agentID,
		AgentName:        agentName,
		InstallmentCount: count,
		AmountPaid:       p,
		CommissionAmount: c,
		NetAmount:        p.Sub(c),
	}
}

func TestAgentCommissions_GroupsAndSorts(t *testing.T) {
	repo := &fakeRepo{payments: []*billing.Payment{
		payment("a2", "Pedro", "100", "15", 2),
		payment("a1", "Ana", "250", "38", 5),
		payment("a2", "Pedro", "50", "8", 1),
	}}
	svc := NewService(repo)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.AgentCommissions(context.Background(), CommissionsFilter{FromDate: from})
	require.NoError(t, err)

	assert.Equal(t, from, repo.filter.From)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "Ana", report.Items[0].AgentName)
	assert.Equal(t, "Pedro", report.Items[1].AgentName)
	assert.Equal(t, 2, report.Items[1].Payments)
	assert.Equal(t, 3, report.Items[1].Installments)
	assert.True(t, types.MustMoney("150").Equal(report.Items[1].AmountPaid))
	assert.True(t, types.MustMoney("23").Equal(report.Items[1].CommissionAmount))
	assert.True(t, types.MustMoney("400").Equal(report.TotalAmountPaid))
	assert.True(t, types.MustMoney("61").Equal(report.TotalCommission))
	assert.True(t, types.MustMoney("339").Equal(report.TotalNet))
	require.NotNil(t, report.FromDate)
	assert.Nil(t, report.ToDate)
}

func TestAgentCommissions_InvalidPeriod(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.AgentCommissions(context.Background(), CommissionsFilter{
		FromDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.True(t, apperror.IsValidation(err))
}

func TestContractSummary(t *testing.T) {
	repo := &fakeRepo{contracts: []*billing.Contract{
		{Status: billing.StatusPending, Amount: types.MustMoney("1000"), InstallmentsRemaining: 20},
		{Status: billing.StatusActive, Amount: types.MustMoney("300"), InstallmentsRemaining: 6},
		{Status: billing.StatusActive, Amount: types.Zero(), InstallmentsRemaining: 0},
	}}
	svc := NewService(repo)

	summary, err := svc.ContractSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalContracts)
	assert.Equal(t, 1, summary.PaidOff)
	assert.Equal(t, 26, summary.InstallmentsRemaining)
	assert.True(t, types.MustMoney("1300").Equal(summary.Outstanding))
	require.Len(t, summary.ByStatus, 2)
	assert.Equal(t, "Pendiente", summary.ByStatus[0].Status)
	assert.Equal(t, "Vigente", summary.ByStatus[1].Status)
	assert.Equal(t, 2, summary.ByStatus[1].Count)
}

func TestContractSummary_PropagatesErrors(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("down")})

	_, err := svc.ContractSummary(context.Background())
	assert.Error(t, err)
}
