// Package numerator implements core/numerator.Generator on top of the
// document store: one counter document per sequence key.
package numerator

import (
	"context"
	"fmt"
	"time"

	"memorial/internal/core/apperror"
	"memorial/internal/core/docstore"
	corenumerator "memorial/internal/core/numerator"
)

// Collection holds sequence counters.
const Collection = "sequences"

// Service allocates numbers with the store's atomic increment. Concurrent
// callers wait for each other rather than fail, and a rolled-back
// transaction gives its number back.
type Service struct {
	store docstore.Store
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator over store.
func New(store docstore.Store) *Service {
	return &Service{store: store}
}

// GetNextNumber implements corenumerator.Generator.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	key := buildKey(cfg, period)

	next, err := s.increment(ctx, key)
	if err != nil {
		return "", err
	}
	return formatNumber(cfg, period, next), nil
}

func (s *Service) increment(ctx context.Context, key string) (int64, error) {
	next, err := s.store.Increment(ctx, Collection, key, "value", 1)
	if err != nil {
		return 0, apperror.NewStore("next sequence value", err).WithDetail("sequence", key)
	}
	return next, nil
}

// buildKey creates the sequence key based on config and period.
func buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case corenumerator.ResetMonthly:
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case corenumerator.ResetYearly:
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// formatNumber creates the final number string.
func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}
