package billing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/core/types"
)

func money(s string) types.Money {
	return types.MustMoney(s)
}

func assertMoney(t *testing.T, want string, got types.Money, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func TestComputeTerms_CatalogRate(t *testing.T) {
	terms := ComputeTerms(money("1000"), money("0.05"))

	assertMoney(t, "50", terms.InstallmentAmount)
	assert.Equal(t, 20, terms.InstallmentsTotal)
}

func TestComputeTerms_ZeroAmount(t *testing.T) {
	terms := ComputeTerms(types.Zero(), money("0.05"))

	assertMoney(t, "0", terms.InstallmentAmount)
	assert.Equal(t, 1, terms.InstallmentsTotal)
}

func TestComputeTerms_NegativeAmount(t *testing.T) {
	terms := ComputeTerms(money("-10"), money("0.05"))

	assertMoney(t, "-10", terms.InstallmentAmount)
	assert.Equal(t, 1, terms.InstallmentsTotal)
}

func TestComputeTerms_SmallAmountFallsBackToWholeAmount(t *testing.T) {
	// round(5 * 0.05) = 0
	terms := ComputeTerms(money("5"), money("0.05"))

	assertMoney(t, "5", terms.InstallmentAmount)
	assert.Equal(t, 1, terms.InstallmentsTotal)
}

func TestComputeTerms_RoundsHalfAwayFromZero(t *testing.T) {
	// 10 * 0.05 = 0.5 -> 1
	terms := ComputeTerms(money("10"), money("0.05"))

	assertMoney(t, "1", terms.InstallmentAmount)
	assert.Equal(t, 10, terms.InstallmentsTotal)
}

func TestComputeTerms_ManualRateCeil(t *testing.T) {
	terms := ComputeTerms(money("1000"), money("0.15"))

	assertMoney(t, "150", terms.InstallmentAmount)
	assert.Equal(t, 7, terms.InstallmentsTotal)
}

func TestComputeTerms_ScheduleCoversBalance(t *testing.T) {
	rates := []decimal.Decimal{money("0.05"), money("0.15"), money("0.33"), money("1")}

	for _, rate := range rates {
		for a := int64(1); a <= 3000; a += 7 {
			amount := decimal.NewFromInt(a)
			terms := ComputeTerms(amount, rate)

			require.GreaterOrEqual(t, terms.InstallmentsTotal, 1)
			total := decimal.NewFromInt(int64(terms.InstallmentsTotal))
			covered := terms.InstallmentAmount.Mul(total)
			short := terms.InstallmentAmount.Mul(total.Sub(decimal.NewFromInt(1)))

			assert.Truef(t, covered.GreaterThanOrEqual(amount), "amount=%d rate=%s", a, rate)
			assert.Truef(t, short.LessThan(amount), "amount=%d rate=%s", a, rate)
		}
	}
}

func TestComputeTerms_Pure(t *testing.T) {
	a := ComputeTerms(money("1234.56"), money("0.05"))
	b := ComputeTerms(money("1234.56"), money("0.05"))
	assert.Equal(t, a.InstallmentsTotal, b.InstallmentsTotal)
	assert.True(t, a.InstallmentAmount.Equal(b.InstallmentAmount))
}

func contractFixture() *Contract {
	return &Contract{
		Amount:                money("1000"),
		InstallmentAmount:     money("50"),
		InstallmentsTotal:     20,
		InstallmentsRemaining: 20,
	}
}

func TestCalculatePayment_Basic(t *testing.T) {
	pct := money("15")
	b := CalculatePayment(contractFixture(), 5, &pct, DefaultConfig())

	assertMoney(t, "250", b.AmountPaid)
	assertMoney(t, "38", b.CommissionAmount)
	assertMoney(t, "212", b.NetAmount)
	assertMoney(t, "788", b.Amount)
	assert.Equal(t, 15, b.InstallmentsRemaining)
}

func TestCalculatePayment_OverpaymentClamps(t *testing.T) {
	c := contractFixture()
	c.Amount = money("100")
	c.InstallmentsRemaining = 2

	b := CalculatePayment(c, 5, nil, DefaultConfig())

	assert.Equal(t, 0, b.InstallmentsRemaining)
	assertMoney(t, "0", b.Amount)
	assertMoney(t, "250", b.AmountPaid)
}

func TestCalculatePayment_LegacyInstallmentEstimate(t *testing.T) {
	c := contractFixture()
	c.InstallmentAmount = types.Zero()

	b := CalculatePayment(c, 1, nil, DefaultConfig())

	assertMoney(t, "150", b.InstallmentAmount)
	assertMoney(t, "150", b.AmountPaid)
}

func TestCalculatePayment_CommissionPrecedence(t *testing.T) {
	c := contractFixture()
	contractPct := money("10")
	override := money("20")

	b := CalculatePayment(c, 2, nil, DefaultConfig())
	assert.True(t, b.CommissionPercent.Equal(money("15")), "default")

	c.CommissionPercent = &contractPct
	b = CalculatePayment(c, 2, nil, DefaultConfig())
	assert.True(t, b.CommissionPercent.Equal(money("10")), "contract")
	assertMoney(t, "10", b.CommissionAmount)

	b = CalculatePayment(c, 2, &override, DefaultConfig())
	assert.True(t, b.CommissionPercent.Equal(money("20")), "override")
	assertMoney(t, "20", b.CommissionAmount)
}

func TestCalculatePayment_LegacyCounter(t *testing.T) {
	c := contractFixture()
	c.legacyCounter = true
	c.InstallmentsTotal = 3

	b := CalculatePayment(c, 5, nil, DefaultConfig())
	assert.Equal(t, 0, b.InstallmentsTotal)
	assert.Equal(t, 3, c.InstallmentsTotal, "input not mutated")

	c.InstallmentsTotal = 10
	b = CalculatePayment(c, 2, nil, DefaultConfig())
	assert.Equal(t, 8, b.InstallmentsTotal)
}

func TestCalculatePayment_CurrentContractKeepsTotal(t *testing.T) {
	c := contractFixture()
	total := c.InstallmentsTotal

	b := CalculatePayment(c, 2, nil, DefaultConfig())
	assert.Equal(t, total, b.InstallmentsTotal)
	assert.Equal(t, c.InstallmentsRemaining-2, b.InstallmentsRemaining)
}

func TestContract_JSONLegacyShape(t *testing.T) {
	var c Contract
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"1000","installmentsTotal":10}`), &c))
	assert.True(t, c.legacyCounter)

	raw, err := json.Marshal(&c)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "installmentsRemaining")
	assert.Contains(t, string(raw), `"installmentsTotal":10`)

	var current Contract
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"1000","installmentsTotal":10,"installmentsRemaining":4}`), &current))
	assert.False(t, current.legacyCounter)
	assert.Equal(t, 4, current.InstallmentsRemaining)

	raw, err = json.Marshal(&current)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"installmentsRemaining":4`)
}

func TestCalculatePayment_NetPlusCommissionEqualsPaid(t *testing.T) {
	c := &Contract{Amount: money("100000"), InstallmentAmount: money("37"), InstallmentsTotal: 100, InstallmentsRemaining: 100}

	for count := 1; count <= 20; count++ {
		for p := int64(0); p <= 100; p += 5 {
			pct := decimal.NewFromInt(p)
			b := CalculatePayment(c, count, &pct, DefaultConfig())

			assert.Truef(t, b.AmountPaid.Equal(c.InstallmentAmount.Mul(decimal.NewFromInt(int64(count)))), "count=%d", count)
			assert.Truef(t, b.NetAmount.Add(b.CommissionAmount).Equal(b.AmountPaid), "count=%d pct=%d", count, p)
			assert.Truef(t, c.Amount.Sub(b.Amount).Equal(b.NetAmount), "count=%d pct=%d", count, p)
		}
	}
}

func TestConfig_RateFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.RateFor(SourceCatalog).Equal(money("0.05")))
	assert.True(t, cfg.RateFor(SourceManual).Equal(money("0.15")))
}
