package postgres

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/lease"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaseDTO is one row of optimization_leases.
type LeaseDTO struct {
	Key        string    `gorm:"type:varchar(64);primaryKey"`
	Holder     string    `gorm:"type:varchar(64);not null"`
	AcquiredAt time.Time `gorm:"type:timestamptz;not null"`
	ExpiresAt  time.Time `gorm:"type:timestamptz;not null;index"`
}

func (LeaseDTO) TableName() string {
	return "optimization_leases"
}

// GormLeaseManager keeps optimization leases in a table, which coordinates every
// process sharing the database.
type GormLeaseManager struct {
	db *gorm.DB
}

func NewGormLeaseManager(db *gorm.DB) *GormLeaseManager {
	return &GormLeaseManager{db: db}
}

// TryAcquire upserts the lease row. The conflict update only fires for the same
// holder or an expired row, so zero affected rows means someone else holds it.
func (m *GormLeaseManager) TryAcquire(ctx context.Context, l lease.Lease) error {
	dto := LeaseDTO{
		Key:        l.Key(),
		Holder:     l.Holder(),
		AcquiredAt: l.AcquiredAt(),
		ExpiresAt:  l.ExpiresAt(),
	}

	result := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"holder", "acquired_at", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "optimization_leases.holder = excluded.holder OR optimization_leases.expires_at <= excluded.acquired_at"},
		}},
	}).Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lease.ErrHeld
	}
	return nil
}

func (m *GormLeaseManager) Release(ctx context.Context, l lease.Lease) error {
	return m.db.WithContext(ctx).
		Where("key = ? AND holder = ?", l.Key(), l.Holder()).
		Delete(&LeaseDTO{}).Error
}

func (m *GormLeaseManager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	result := m.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&LeaseDTO{})
	return int(result.RowsAffected), result.Error
}
