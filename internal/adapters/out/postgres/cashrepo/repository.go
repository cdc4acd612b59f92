package cashrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/adapters/out/postgres/pgerr"
	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCashRepository implements ports.CashRepository using GORM.
type GormCashRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormCashRepository(db *gorm.DB, tracker aggregateTracker) *GormCashRepository {
	return &GormCashRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormCashRepository) Add(ctx context.Context, aggregate *cash.Record) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return translate(err, aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormCashRepository) AddEntry(ctx context.Context, entry cash.Entry) error {
	dto := entryFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return translate(err, entry.DeliveryID.String())
	}
	return nil
}

func (r *GormCashRepository) Update(ctx context.Context, aggregate *cash.Record) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	current := aggregate.Version()
	dto := fromDomain(aggregate)
	dto.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(&dto).
		Where("version = ?", current).
		Select("*").
		Omit(clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&RecordDTO{}).Where("id = ?", dto.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.NewObjectNotFoundError("cash record", aggregate.ID().String())
		}
		return errs.NewConcurrentModificationError("cash record", aggregate.ID().String())
	}

	aggregate.NextVersion()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormCashRepository) Get(ctx context.Context, id kernel.UUID) (*cash.Record, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RecordDTO
	if err := r.withEntries(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("cash record", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormCashRepository) GetByDriverDate(ctx context.Context, driverID kernel.UUID, date time.Time) (*cash.Record, error) {
	day := kernel.DateOf(date)

	var dto RecordDTO
	err := r.withEntries(ctx).
		Where("driver_id = ? AND date = ?", driverID.Bytes(), day).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("cash record", driverID.String()+"@"+kernel.FormatDate(day))
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormCashRepository) ListByDate(ctx context.Context, date time.Time, driverID *kernel.UUID) ([]*cash.Record, error) {
	q := r.withEntries(ctx).Where("date = ?", kernel.DateOf(date))
	if driverID != nil {
		q = q.Where("driver_id = ?", driverID.Bytes())
	}

	var dtos []RecordDTO
	if err := q.Order("driver_id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*cash.Record, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *GormCashRepository) withEntries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("recorded_at").Order("id")
	})
}

func translate(err error, id string) error {
	switch {
	case pgerr.IsUniqueViolationOf(err, DriverDateIndex):
		return errs.NewConcurrentModificationError("cash record", id)
	case pgerr.IsUniqueViolationOf(err, EntryDeliveryIndex):
		return errs.NewValidationErrorWithCause(id, "cash for this delivery is already recorded", err)
	}
	return err
}
