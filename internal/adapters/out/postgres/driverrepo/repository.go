package driverrepo

import (
	"context"
	"errors"

	"dispatch/internal/adapters/out/postgres/pgerr"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormDriverRepository implements ports.DriverRepository using GORM.
type GormDriverRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormDriverRepository(db *gorm.DB, tracker aggregateTracker) *GormDriverRepository {
	return &GormDriverRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if _, dup := pgerr.UniqueViolation(err); dup {
			return errs.NewValidationErrorWithCause(aggregate.ID().String(), "user is already registered as a driver", err)
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDriverRepository) Update(ctx context.Context, aggregate *driver.Driver) error {
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
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&DriverDTO{}).Where("id = ?", dto.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.NewObjectNotFoundError("driver", aggregate.ID().String())
		}
		return errs.NewConcurrentModificationError("driver", aggregate.ID().String())
	}

	aggregate.NextVersion()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormDriverRepository) List(ctx context.Context, filter ports.DriverFilter) ([]*driver.Driver, int, error) {
	q := r.db.WithContext(ctx).Model(&DriverDTO{})
	if filter.Status != nil {
		q = q.Where("status = ?", filter.Status.String())
	}
	if filter.Zone != nil {
		q = q.Where("? = ANY(zones)", filter.Zone.String())
	}
	if filter.Search != "" {
		pattern := pgerr.LikePattern(filter.Search)
		q = q.Where("(name ILIKE ? OR phone ILIKE ? OR vehicle_plate ILIKE ?)", pattern, pattern, pattern)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	paged := q.Order("name").Order("id")
	if filter.Page.Limit > 0 {
		paged = paged.Limit(filter.Page.Limit)
	}
	if filter.Page.Offset > 0 {
		paged = paged.Offset(filter.Page.Offset)
	}

	var dtos []DriverDTO
	if err := paged.Find(&dtos).Error; err != nil {
		return nil, 0, err
	}

	items, err := toDomainList(dtos)
	return items, int(total), err
}

func (r *GormDriverRepository) ListByStatus(ctx context.Context, statuses ...driver.Status) ([]*driver.Driver, error) {
	if len(statuses) == 0 {
		return []*driver.Driver{}, nil
	}
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}

	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).Where("status IN ?", names).Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

func toDomainList(dtos []DriverDTO) ([]*driver.Driver, error) {
	out := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
