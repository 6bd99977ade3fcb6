package billing

import (
	"github.com/shopspring/decimal"
)

// Config holds the billing parameters.
type Config struct {
	// CatalogRate is the installment fraction for catalog-built contracts.
	CatalogRate decimal.Decimal

	// ManualRate is the installment fraction for manually entered contracts.
	ManualRate decimal.Decimal

	// LegacyRate estimates the installment of contracts stored without one.
	LegacyRate decimal.Decimal

	// DefaultCommissionPercent applies when neither payment nor contract
	// carries a commission percent.
	DefaultCommissionPercent decimal.Decimal
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CatalogRate:              decimal.RequireFromString("0.05"),
		ManualRate:               decimal.RequireFromString("0.15"),
		LegacyRate:               decimal.RequireFromString("0.15"),
		DefaultCommissionPercent: decimal.NewFromInt(15),
	}
}

// RateFor returns the installment rate of a creation path.
func (c Config) RateFor(source Source) decimal.Decimal {
	if source == SourceManual {
		return c.ManualRate
	}
	return c.CatalogRate
}
