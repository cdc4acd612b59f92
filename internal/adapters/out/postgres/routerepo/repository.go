package routerepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/adapters/out/postgres/pgerr"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRouteRepository implements ports.RouteRepository using GORM.
type GormRouteRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormRouteRepository(db *gorm.DB, tracker aggregateTracker) *GormRouteRepository {
	return &GormRouteRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts the route and its stops. A delivery already pending on another
// route trips the pending stop index.
func (r *GormRouteRepository) Add(ctx context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolationOf(err, PendingStopIndex) {
			return errs.NewConcurrentModificationError("route", aggregate.ID().String())
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update swaps the route row on its version, then rewrites the status of every stop.
// Stops never change membership after planning.
func (r *GormRouteRepository) Update(ctx context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	current := aggregate.Version()
	dto := fromDomain(aggregate)
	dto.Version = current + 1

	db := r.db.WithContext(ctx)
	result := db.Model(&dto).
		Where("version = ?", current).
		Select("*").
		Omit(clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := db.Model(&RouteDTO{}).Where("id = ?", dto.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errs.NewObjectNotFoundError("route", aggregate.ID().String())
		}
		return errs.NewConcurrentModificationError("route", aggregate.ID().String())
	}

	for _, stop := range dto.Stops {
		if err := db.Model(&StopDTO{}).
			Where("route_id = ? AND delivery_id = ?", stop.RouteID, stop.DeliveryID).
			Updates(map[string]any{
				"status":       stop.Status,
				"completed_at": stop.CompletedAt,
			}).Error; err != nil {
			if pgerr.IsUniqueViolationOf(err, PendingStopIndex) {
				return errs.NewConcurrentModificationError("route", aggregate.ID().String())
			}
			return err
		}
	}

	aggregate.NextVersion()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormRouteRepository) Get(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RouteDTO
	if err := r.withStops(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("route", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormRouteRepository) ListByDate(ctx context.Context, date time.Time, statuses ...route.Status) ([]*route.Route, error) {
	q := r.withStops(ctx).Where("date = ?", kernel.DateOf(date))
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusNames(statuses))
	}

	var dtos []RouteDTO
	if err := q.Order("created_at").Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

func (r *GormRouteRepository) List(ctx context.Context, filter ports.RouteFilter) ([]*route.Route, int, error) {
	q := r.db.WithContext(ctx).Model(&RouteDTO{})
	if filter.Date != nil {
		q = q.Where("date = ?", kernel.DateOf(*filter.Date))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", filter.Status.String())
	}
	if filter.DriverID != nil {
		q = q.Where("driver_id = ?", filter.DriverID.Bytes())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	paged := q.Preload("Stops", orderedStops).Order("date DESC").Order("created_at DESC").Order("id")
	if filter.Page.Limit > 0 {
		paged = paged.Limit(filter.Page.Limit)
	}
	if filter.Page.Offset > 0 {
		paged = paged.Offset(filter.Page.Offset)
	}

	var dtos []RouteDTO
	if err := paged.Find(&dtos).Error; err != nil {
		return nil, 0, err
	}

	items, err := toDomainList(dtos)
	return items, int(total), err
}

func (r *GormRouteRepository) HasLiveRoute(ctx context.Context, driverID kernel.UUID, exclude kernel.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&RouteDTO{}).
		Where("driver_id = ? AND id <> ? AND status IN ?",
			driverID.Bytes(), exclude.Bytes(), statusNames([]route.Status{route.Planned, route.Active})).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRouteRepository) withStops(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Stops", orderedStops)
}

func orderedStops(db *gorm.DB) *gorm.DB {
	return db.Order("sequence")
}

func statusNames(statuses []route.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}

func toDomainList(dtos []RouteDTO) ([]*route.Route, error) {
	out := make([]*route.Route, 0, len(dtos))
	for _, dto := range dtos {
		rt, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}
