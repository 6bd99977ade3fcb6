package billing

import (
	"github.com/shopspring/decimal"

	"memorial/internal/core/types"
)

// Terms is an installment schedule.
type Terms struct {
	InstallmentAmount types.Money `json:"installmentAmount"`
	InstallmentsTotal int         `json:"installmentsTotal"`
}

// ComputeTerms derives the schedule for amount at rate.
//
// The installment is round(amount*rate), falling back to amount itself when
// that is not positive. The count is ceil(amount/installment), at least 1;
// a zero or negative amount yields a single installment.
func ComputeTerms(amount types.Money, rate decimal.Decimal) Terms {
	installment := types.Round(amount.Mul(rate))
	if !installment.IsPositive() {
		installment = amount
	}

	total := 1
	if installment.IsPositive() {
		q, r := amount.QuoRem(installment, 0)
		n := q.IntPart()
		if !r.IsZero() {
			n++
		}
		if n > int64(total) {
			total = int(n)
		}
	}

	return Terms{
		InstallmentAmount: installment,
		InstallmentsTotal: total,
	}
}

// PaymentBreakdown is the outcome of applying installments to a contract.
type PaymentBreakdown struct {
	InstallmentAmount types.Money
	AmountPaid        types.Money
	CommissionPercent decimal.Decimal
	CommissionAmount  types.Money
	NetAmount         types.Money

	// Contract state after the payment.
	Amount                types.Money
	InstallmentsRemaining int
	// InstallmentsTotal only counts down on legacy contracts.
	InstallmentsTotal int
}

// CalculatePayment applies count installments to c without mutating it.
// Over-payment is clamped: balance and counters never go below zero.
func CalculatePayment(c *Contract, count int, commissionOverride *decimal.Decimal, cfg Config) PaymentBreakdown {
	installment := c.InstallmentAmount
	if !installment.IsPositive() {
		installment = types.Round(c.Amount.Mul(cfg.LegacyRate))
	}

	percent := cfg.DefaultCommissionPercent
	switch {
	case commissionOverride != nil:
		percent = *commissionOverride
	case c.CommissionPercent != nil:
		percent = *c.CommissionPercent
	}

	paid := installment.Mul(decimal.NewFromInt(int64(count)))
	commission := types.Percent(paid, percent)
	net := types.FloorZero(paid.Sub(commission))

	b := PaymentBreakdown{
		InstallmentAmount:     installment,
		AmountPaid:            paid,
		CommissionPercent:     percent,
		CommissionAmount:      commission,
		NetAmount:             net,
		Amount:                types.FloorZero(c.Amount.Sub(net)),
		InstallmentsRemaining: max(0, c.InstallmentsRemaining-count),
		InstallmentsTotal:     c.InstallmentsTotal,
	}
	if c.legacyCounter {
		b.InstallmentsTotal = max(0, c.InstallmentsTotal-count)
	}
	return b
}
