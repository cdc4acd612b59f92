package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lease"
)

// LeaseManager stores optimization leases.
type LeaseManager interface {
	// TryAcquire stores l unless an unexpired lease of another holder exists for the same
	// key, in which case lease.ErrHeld is returned. It never blocks.
	TryAcquire(ctx context.Context, l lease.Lease) error

	// Release removes l if it is still held by l.Holder().
	Release(ctx context.Context, l lease.Lease) error

	// SweepExpired deletes leases that expired before now and reports how many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
