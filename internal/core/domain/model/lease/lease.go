// Package lease models the per-date optimization lease. At most one holder may
// build routes for a date at a time; the TTL frees the date when a holder crashes.
package lease

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ErrHeld is returned by lease managers when another holder owns an unexpired lease.
var ErrHeld = errors.New("optimization lease is held by another run")

const keyPrefix = "optimize:"

type Lease struct {
	key        string
	holder     string
	acquiredAt time.Time
	expiresAt  time.Time
}

// New builds a lease for date owned by holder until now+ttl.
func New(date time.Time, holder string, ttl time.Duration, now time.Time) (Lease, error) {
	if holder == "" {
		return Lease{}, errs.NewValueIsRequiredError("holder")
	}
	if ttl <= 0 {
		return Lease{}, errs.NewValueIsOutOfRangeError("ttl", ttl, "1ns", "∞")
	}
	return Lease{
		key:        Key(date),
		holder:     holder,
		acquiredAt: now.UTC(),
		expiresAt:  now.Add(ttl).UTC(),
	}, nil
}

// Restore rebuilds a lease read from storage.
func Restore(key, holder string, acquiredAt, expiresAt time.Time) Lease {
	return Lease{key: key, holder: holder, acquiredAt: acquiredAt.UTC(), expiresAt: expiresAt.UTC()}
}

// Key is the storage key of the lease for a date.
func Key(date time.Time) string {
	return keyPrefix + kernel.FormatDate(date)
}

// NewHolderToken returns a random token identifying one optimization run.
func NewHolderToken() string {
	return kernel.NewUUID().String()
}

func (l Lease) Key() string {
	return l.key
}

func (l Lease) Holder() string {
	return l.holder
}

func (l Lease) AcquiredAt() time.Time {
	return l.acquiredAt
}

func (l Lease) TTL() time.Duration {
	return l.expiresAt.Sub(l.acquiredAt)
}

func (l Lease) ExpiresAt() time.Time {
	return l.expiresAt
}

func (l Lease) IsExpired(now time.Time) bool {
	return !now.Before(l.expiresAt)
}

// CanBeTakenBy reports whether holder may acquire or refresh the lease at now.
func (l Lease) CanBeTakenBy(holder string, now time.Time) bool {
	return l.holder == holder || l.IsExpired(now)
}
