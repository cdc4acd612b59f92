// Package redislease keeps optimization leases in Redis so that every process
// pointed at the same Redis instance shares them. Expiry is delegated to the
// key TTL.
package redislease

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lease"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dispatch:"

// acquire sets the key when it is free or already owned by the same holder.
var acquire = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false or current == ARGV[1] then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return 1
end
return 0
`)

var release = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type LeaseManager struct {
	client redis.Scripter
}

func NewLeaseManager(client redis.Scripter) *LeaseManager {
	return &LeaseManager{client: client}
}

func (m *LeaseManager) TryAcquire(ctx context.Context, l lease.Lease) error {
	ttl := l.TTL()
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	ok, err := acquire.Run(ctx, m.client, []string{keyPrefix + l.Key()}, l.Holder(), ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return lease.ErrHeld
	}
	return nil
}

func (m *LeaseManager) Release(ctx context.Context, l lease.Lease) error {
	return release.Run(ctx, m.client, []string{keyPrefix + l.Key()}, l.Holder()).Err()
}

// SweepExpired is a no-op: Redis drops expired keys itself.
func (m *LeaseManager) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
