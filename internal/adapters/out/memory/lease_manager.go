package memory

import (
	"context"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/lease"
)

// LeaseManager keeps optimization leases in process memory. It only coordinates
// runs inside one process.
type LeaseManager struct {
	mu     sync.Mutex
	leases map[string]lease.Lease
}

func NewLeaseManager() *LeaseManager {
	return &LeaseManager{leases: make(map[string]lease.Lease)}
}

func (m *LeaseManager) TryAcquire(_ context.Context, l lease.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.leases[l.Key()]; ok && !current.CanBeTakenBy(l.Holder(), l.AcquiredAt()) {
		return lease.ErrHeld
	}
	m.leases[l.Key()] = l
	return nil
}

func (m *LeaseManager) Release(_ context.Context, l lease.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.leases[l.Key()]; ok && current.Holder() == l.Holder() {
		delete(m.leases, l.Key())
	}
	return nil
}

func (m *LeaseManager) SweepExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, l := range m.leases {
		if l.IsExpired(now) {
			delete(m.leases, key)
			removed++
		}
	}
	return removed, nil
}
