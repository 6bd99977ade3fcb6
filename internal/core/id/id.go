// Package id generates document ids. Documents are addressed by the string
// form of a UUIDv7, so ids sort by creation time.
package id

import (
	"github.com/google/uuid"
)

// NewString generates a new UUIDv7 in canonical string form.
func NewString() string {
	v, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.NewString()
	}
	return v.String()
}
