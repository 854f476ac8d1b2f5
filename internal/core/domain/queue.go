package domain

import (
	"time"

	"github.com/google/uuid"
)

// Queue is a single service line owned by a tenant.
type Queue struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	// AvgServiceTime is the configured fallback estimate for serving one
	// ticket, used when there is no recent call history to derive it from.
	AvgServiceTime time.Duration
	IsActive       bool
	CreatedAt      time.Time
}
