package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/core/apperror"
	"memorial/internal/core/docstore"
	"memorial/internal/core/types"
	"memorial/internal/domain/audit"
	"memorial/internal/domain/billing"
	"memorial/internal/domain/catalog"
	"memorial/internal/infrastructure/numerator"
	"memorial/internal/infrastructure/storage/docrepo"
	"memorial/internal/infrastructure/storage/memory"
)

type fixture struct {
	store     *memory.Store
	svc       *billing.Service
	catalog   *catalog.Service
	audit     *audit.Service
	contracts *docrepo.BaseRepo[*billing.Contract]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	txm := memory.NewTxManager(store)

	auditRepo, err := docrepo.NewAuditRepo(store, 0)
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		catalog:   catalog.NewService(docrepo.NewCatalogRepo(store), txm),
		audit:     audit.NewService(auditRepo),
		contracts: docrepo.NewContractRepo(store),
	}
	f.svc = billing.NewService(billing.ServiceConfig{
		Contracts: f.contracts,
		Payments:  docrepo.NewPaymentRepo(store),
		Catalog:   f.catalog,
		Audit:     f.audit,
		Numerator: numerator.New(store),
		TxManager: txm,
		Billing:   billing.DefaultConfig(),
	})
	return f
}

func (f *fixture) catalogItem(t *testing.T, itemType catalog.ItemType, name, price string) billing.Item {
	t.Helper()
	item := catalog.NewItem(itemType, name, types.MustMoney(price))
	require.NoError(t, f.catalog.Create(context.Background(), item))
	return billing.ItemFromCatalog(item)
}

// contract1000 creates a catalog contract of 1000 (installment 50 x 20).
func (f *fixture) contract1000(t *testing.T) *billing.Contract {
	t.Helper()
	c, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{
		ClientID: "client-1",
		Items: []billing.Item{
			f.catalogItem(t, catalog.TypeModel, "Oak coffin", "600"),
			f.catalogItem(t, catalog.TypeService, "Chapel service", "400"),
		},
	})
	require.NoError(t, err)
	return c
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.Truef(t, types.MustMoney(want).Equal(got), "want %s, got %s", want, got.String())
}

func agent() billing.Agent {
	return billing.Agent{ID: "agent-1", Name: "Ana"}
}

func year() int {
	return time.Now().UTC().Year()
}

func TestCreateContract_FromCatalogItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.contract1000(t)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, fmt.Sprintf("CT-%d-00001", year()), c.Number)
	assertMoney(t, "1000", c.Amount)
	assertMoney(t, "50", c.InstallmentAmount)
	assertMoney(t, "0.05", c.InstallmentRate)
	assert.Equal(t, 20, c.InstallmentsTotal)
	assert.Equal(t, 20, c.InstallmentsRemaining)
	assert.Equal(t, billing.StatusPending, c.Status)
	assert.Equal(t, billing.SourceCatalog, c.Source)
	assert.Len(t, c.Items, 2)

	// Bound items leave the catalog.
	assert.Equal(t, 0, f.store.Count(docrepo.CollectionCatalog))

	trail, err := f.audit.Trail(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, audit.ActionCreate, trail[0].Action)
}

func TestCreateContract_ManualAmountUsesManualRate(t *testing.T) {
	f := newFixture(t)
	amount := types.MustMoney("1000")

	c, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{
		ClientID:     "client-1",
		ManualAmount: &amount,
	})
	require.NoError(t, err)

	assert.Equal(t, billing.SourceManual, c.Source)
	assertMoney(t, "150", c.InstallmentAmount)
	assert.Equal(t, 7, c.InstallmentsTotal)
	assert.Empty(t, c.Items)
}

func TestCreateContract_ManualAmountOverridesItems(t *testing.T) {
	f := newFixture(t)
	amount := types.MustMoney("500")

	c, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{
		ClientID:     "client-1",
		Items:        []billing.Item{{ItemType: catalog.TypeModel, Name: "Urn", Price: types.MustMoney("900")}},
		ManualAmount: &amount,
		Source:       billing.SourceCatalog,
	})
	require.NoError(t, err)

	assertMoney(t, "500", c.Amount)
	assertMoney(t, "25", c.InstallmentAmount)
	assert.Equal(t, 20, c.InstallmentsTotal)
}

func TestCreateContract_Validation(t *testing.T) {
	negative := types.MustMoney("-1")
	tooHigh := types.MustMoney("101")

	tests := []struct {
		name string
		in   billing.CreateContractInput
	}{
		{"missing client", billing.CreateContractInput{Items: []billing.Item{{Name: "x", Price: types.MustMoney("1")}}}},
		{"no items and no amount", billing.CreateContractInput{ClientID: "c"}},
		{"negative manual amount", billing.CreateContractInput{ClientID: "c", ManualAmount: &negative}},
		{"negative item price", billing.CreateContractInput{ClientID: "c", Items: []billing.Item{{Name: "x", Price: negative}}}},
		{"commission above 100", billing.CreateContractInput{ClientID: "c", Items: []billing.Item{{Name: "x", Price: types.MustMoney("1")}}, CommissionPercent: &tooHigh}},
		{"unknown source", billing.CreateContractInput{ClientID: "c", Items: []billing.Item{{Name: "x", Price: types.MustMoney("1")}}, Source: "web"}},
		{"duplicate item", billing.CreateContractInput{ClientID: "c", Items: []billing.Item{
			{ItemID: "it-1", Name: "x", Price: types.MustMoney("1")},
			{ItemID: "it-1", Name: "x", Price: types.MustMoney("1")},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.CreateContract(context.Background(), tt.in)

			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
			assert.Equal(t, 0, f.store.Count(docrepo.CollectionContracts))
		})
	}
}

func TestCreateContract_CatalogRemovalFailureIsNotPropagated(t *testing.T) {
	f := newFixture(t)
	item := f.catalogItem(t, catalog.TypeModel, "Oak coffin", "1000")
	f.store.FailOn("delete", docrepo.CollectionCatalog, errors.New("boom"))

	c, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{
		ClientID: "client-1",
		Items:    []billing.Item{item},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1, f.store.Count(docrepo.CollectionCatalog))
}

func TestCreateContract_StoreFailureRollsBackNumber(t *testing.T) {
	f := newFixture(t)
	amount := types.MustMoney("100")
	f.store.FailOn("create", docrepo.CollectionContracts, errors.New("disk full"))

	_, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{ClientID: "c", ManualAmount: &amount})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStore))

	f.store.FailOn("create", docrepo.CollectionContracts, nil)
	c, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{ClientID: "c", ManualAmount: &amount})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CT-%d-00001", year()), c.Number)
}

func TestApplyPayment_ReducesBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stamp := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return stamp })

	c := f.contract1000(t)
	pct := types.MustMoney("15")

	p, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{
		ContractID:        c.ID,
		InstallmentCount:  5,
		Agent:             agent(),
		CommissionPercent: &pct,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, fmt.Sprintf("RC-%d-00001", year()), p.Number)
	assert.Equal(t, c.ID, p.ContractID)
	assert.Equal(t, "agent-1", p.AgentID)
	assert.Equal(t, "Ana", p.AgentName)
	assert.Equal(t, 5, p.InstallmentCount)
	assertMoney(t, "50", p.InstallmentAmount)
	assertMoney(t, "250", p.AmountPaid)
	assertMoney(t, "38", p.CommissionAmount)
	assertMoney(t, "212", p.NetAmount)
	assert.True(t, stamp.Equal(p.Timestamp), "store timestamp, got %s", p.Timestamp)

	updated, err := f.svc.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assertMoney(t, "788", updated.Amount)
	assert.Equal(t, 15, updated.InstallmentsRemaining)
	assert.Equal(t, 20, updated.InstallmentsTotal)
	assert.Equal(t, c.Version+1, updated.Version)

	trail, err := f.audit.Trail(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	actions := []audit.Action{trail[0].Action, trail[1].Action}
	assert.Contains(t, actions, audit.ActionPayment)
}

func TestApplyPayment_LegacyContractCountsDownTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "contracts", docstore.Document{
		"id":                "legacy-1",
		"clientId":          "client-1",
		"amount":            "1000",
		"installmentsTotal": 10,
		"source":            "manual",
		"status":            "Vigente",
	})
	require.NoError(t, err)

	p, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{
		ContractID:       "legacy-1",
		InstallmentCount: 2,
		Agent:            agent(),
	})
	require.NoError(t, err)
	assertMoney(t, "150", p.InstallmentAmount)
	assertMoney(t, "300", p.AmountPaid)

	updated, err := f.svc.GetContract(ctx, "legacy-1")
	require.NoError(t, err)
	assertMoney(t, "745", updated.Amount)
	assert.Equal(t, 8, updated.InstallmentsTotal)
	assert.Equal(t, 0, updated.InstallmentsRemaining)

	doc, err := f.store.Get(ctx, "contracts", "legacy-1")
	require.NoError(t, err)
	assert.NotContains(t, doc, "installmentsRemaining")

	_, err = f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{
		ContractID:       "legacy-1",
		InstallmentCount: 9,
		Agent:            agent(),
	})
	require.NoError(t, err)

	updated, err = f.svc.GetContract(ctx, "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, 0, updated.InstallmentsTotal)
}

func TestApplyPayment_DefaultCommission(t *testing.T) {
	f := newFixture(t)
	c := f.contract1000(t)

	p, err := f.svc.ApplyPayment(context.Background(), billing.ApplyPaymentInput{
		ContractID: c.ID, InstallmentCount: 1, Agent: agent(),
	})
	require.NoError(t, err)

	assertMoney(t, "15", p.CommissionPercent)
	assertMoney(t, "8", p.CommissionAmount) // round(7.5)
	assertMoney(t, "42", p.NetAmount)
}

func TestApplyPayment_OverpaymentClamps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract1000(t)

	_, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 18, Agent: agent()})
	require.NoError(t, err)

	// 2 installments left; paying 10 nets 425 against a balance of 235.
	_, err = f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 10, Agent: agent()})
	require.NoError(t, err)

	updated, err := f.svc.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.InstallmentsRemaining)
	assertMoney(t, "0", updated.Amount)
	assert.True(t, updated.IsPaidOff())
}

func TestApplyPayment_Validation(t *testing.T) {
	pct := types.MustMoney("-5")

	tests := []struct {
		name string
		in   billing.ApplyPaymentInput
	}{
		{"zero installments", billing.ApplyPaymentInput{ContractID: "c", InstallmentCount: 0, Agent: agent()}},
		{"negative installments", billing.ApplyPaymentInput{ContractID: "c", InstallmentCount: -1, Agent: agent()}},
		{"missing agent", billing.ApplyPaymentInput{ContractID: "c", InstallmentCount: 1}},
		{"negative commission", billing.ApplyPaymentInput{ContractID: "c", InstallmentCount: 1, Agent: agent(), CommissionPercent: &pct}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.ApplyPayment(context.Background(), tt.in)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestApplyPayment_ContractNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyPayment(context.Background(), billing.ApplyPaymentInput{
		ContractID: "missing", InstallmentCount: 1, Agent: agent(),
	})

	assert.True(t, apperror.IsNotFound(err), "got %v", err)
	assert.Equal(t, 0, f.store.Count(docrepo.CollectionPayments))
}

func TestApplyPayment_PaymentFailureRollsBackContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract1000(t)
	f.store.FailOn("create", docrepo.CollectionPayments, errors.New("timeout"))

	_, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 2, Agent: agent()})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStore))

	unchanged, err := f.svc.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assertMoney(t, "1000", unchanged.Amount)
	assert.Equal(t, 20, unchanged.InstallmentsRemaining)
	assert.Equal(t, c.Version, unchanged.Version)
}

func TestContractUpdate_StaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract1000(t)

	stale, err := f.contracts.GetByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 1, Agent: agent()})
	require.NoError(t, err)

	stale.Amount = types.MustMoney("1")
	err = f.contracts.Update(ctx, stale)
	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
}

func TestAddItemToContract_RecomputesSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract1000(t)
	pct := types.MustMoney("15")

	_, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 5, Agent: agent(), CommissionPercent: &pct})
	require.NoError(t, err)

	extra := f.catalogItem(t, catalog.TypeService, "Flowers", "200")
	updated, err := f.svc.AddItemToContract(ctx, c.ID, extra)
	require.NoError(t, err)

	// 788 + 200 = 988; round(988*0.05) = 49; ceil(988/49) = 21
	assertMoney(t, "988", updated.Amount)
	assertMoney(t, "49", updated.InstallmentAmount)
	assert.Equal(t, 21, updated.InstallmentsTotal)
	assert.Equal(t, 21, updated.InstallmentsRemaining)
	assert.Len(t, updated.Items, 3)
	assert.Equal(t, 0, f.store.Count(docrepo.CollectionCatalog))
}

func TestAddItemToContract_KeepsContractRate(t *testing.T) {
	f := newFixture(t)
	amount := types.MustMoney("1000")
	c, err := f.svc.CreateContract(context.Background(), billing.CreateContractInput{ClientID: "c", ManualAmount: &amount})
	require.NoError(t, err)

	updated, err := f.svc.AddItemToContract(context.Background(), c.ID, billing.Item{ItemType: catalog.TypeService, Name: "Hearse", Price: types.MustMoney("200")})
	require.NoError(t, err)

	assertMoney(t, "180", updated.InstallmentAmount)
	assert.Equal(t, 7, updated.InstallmentsTotal)
}

func TestAddItemToContract_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddItemToContract(context.Background(), "missing", billing.Item{Name: "x", Price: types.MustMoney("1")})

	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestPaymentHistory_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var tick atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Minute) })

	c := f.contract1000(t)
	first, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 1, Agent: agent()})
	require.NoError(t, err)
	second, err := f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: c.ID, InstallmentCount: 2, Agent: agent()})
	require.NoError(t, err)

	other := f.contract1000(t)
	_, err = f.svc.ApplyPayment(ctx, billing.ApplyPaymentInput{ContractID: other.ID, InstallmentCount: 1, Agent: agent()})
	require.NoError(t, err)

	history, err := f.svc.PaymentHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestPaymentHistory_ContractNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PaymentHistory(context.Background(), "missing")

	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract1000(t)

	updated, err := f.svc.SetStatus(ctx, c.ID, billing.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, updated.Status)

	_, err = f.svc.SetStatus(ctx, c.ID, "")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.SetStatus(ctx, "missing", billing.StatusActive)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListContracts_FilterByClientAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	amount := types.MustMoney("100")

	for _, clientID := range []string{"a", "a", "b"} {
		_, err := f.svc.CreateContract(ctx, billing.CreateContractInput{ClientID: clientID, ManualAmount: &amount})
		require.NoError(t, err)
	}

	res, err := f.svc.ListContracts(ctx, billing.ContractFilter{ClientID: "a"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.EqualValues(t, 2, res.TotalCount)

	res, err = f.svc.ListContracts(ctx, billing.ContractFilter{Status: billing.StatusActive})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res, err = f.svc.ListContracts(ctx, billing.ContractFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.EqualValues(t, 3, res.TotalCount)
}
