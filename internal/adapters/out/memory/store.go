// Package memory is an in-process storage backend. It keeps aggregate snapshots
// in maps guarded by one mutex and gives every unit of work optimistic,
// version-checked commits, which is the same contract the postgres backend offers.
package memory

import (
	"maps"
	"sync"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// Store holds committed state.
type Store struct {
	mu         sync.Mutex
	deliveries map[kernel.UUID]delivery.Snapshot
	drivers    map[kernel.UUID]driver.Snapshot
	routes     map[kernel.UUID]route.Snapshot
	records    map[kernel.UUID]cash.Snapshot
}

func NewStore() *Store {
	return &Store{
		deliveries: make(map[kernel.UUID]delivery.Snapshot),
		drivers:    make(map[kernel.UUID]driver.Snapshot),
		routes:     make(map[kernel.UUID]route.Snapshot),
		records:    make(map[kernel.UUID]cash.Snapshot),
	}
}

// staged is a pending write of a unit of work. base is the committed version the
// write was computed from; commit fails when it moved.
type staged[T any] struct {
	snap  T
	base  int64
	isNew bool
}

// overlay returns committed snapshots with the staged ones applied on top.
func overlay[T any](committed map[kernel.UUID]T, pending map[kernel.UUID]staged[T]) map[kernel.UUID]T {
	out := maps.Clone(committed)
	for id, s := range pending {
		out[id] = s.snap
	}
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
