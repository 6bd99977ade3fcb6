package numerator

import (
	"context"
	"time"
)

// Generator generates sequential numbers.
// Implementations live in the infrastructure layer.
type Generator interface {
	// GetNextNumber allocates the next number for cfg in period.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., CT-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)
}
