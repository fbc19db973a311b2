package contract

import (
	"context"
	"time"
)

// SignalMaintenanceContract is what scheduled jobs need from the signal service.
type SignalMaintenanceContract interface {
	// ExpirePending rejects every PENDING signal created before cutoff.
	ExpirePending(ctx context.Context, cutoff time.Time, reason string) (int, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
