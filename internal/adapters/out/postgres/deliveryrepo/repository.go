package deliveryrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/adapters/out/postgres/pgerr"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryRepository implements ports.DeliveryRepository using GORM.
type GormDeliveryRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormDeliveryRepository(db *gorm.DB, tracker aggregateTracker) *GormDeliveryRepository {
	return &GormDeliveryRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts a new delivery. The live order index turns a duplicate into a ValidationError;
// a delivery number collision is a ConcurrentModificationError so the caller retries.
func (r *GormDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolationOf(err, LiveOrderIndex) {
			return errs.NewValidationErrorWithCause(aggregate.ID().String(),
				fmt.Sprintf("order %s already has a delivery", aggregate.Order().OrderID()), err)
		}
		if pgerr.IsUniqueViolationOf(err, NumberIndex) {
			return errs.NewConcurrentModificationError("delivery", aggregate.Number())
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes every column when the stored version still matches and bumps it.
func (r *GormDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
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
		if pgerr.IsUniqueViolationOf(result.Error, LiveOrderIndex) {
			return errs.NewValidationErrorWithCause(aggregate.ID().String(), "order already has a live delivery", result.Error)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, aggregate.ID())
	}

	aggregate.NextVersion()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DeliveryDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormDeliveryRepository) ExistsActiveForOrder(ctx context.Context, orderID kernel.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Where("order_id = ? AND status <> ?", orderID.Bytes(), delivery.Cancelled.String()).
		Count(&n).Error
	return n > 0, err
}

// ListPending pages pending deliveries of an order date by delivery number.
func (r *GormDeliveryRepository) ListPending(ctx context.Context, filter ports.PendingFilter) ([]*delivery.Delivery, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND order_date = ?", delivery.Pending.String(), kernel.DateOf(filter.Date))
	if filter.Zone != nil {
		q = q.Where("address_zone = ?", filter.Zone.String())
	}
	if filter.AfterNumber != "" {
		q = q.Where("number > ?", filter.AfterNumber)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var dtos []DeliveryDTO
	if err := q.Order("number").Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

func (r *GormDeliveryRepository) List(ctx context.Context, filter ports.DeliveryFilter) ([]*delivery.Delivery, int, error) {
	q := r.db.WithContext(ctx).Model(&DeliveryDTO{}).Scopes(
		withStatuses(filter.Statuses),
		withDriver(filter.DriverID),
		withOrderDates(filter.DateFrom, filter.DateTo),
		withSearch(filter.Search),
	).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var dtos []DeliveryDTO
	if err := q.Scopes(page(filter.Page)).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "created_at"}, Desc: true},
			{Column: clause.Column{Name: "number"}, Desc: true},
		}}).
		Find(&dtos).Error; err != nil {
		return nil, 0, err
	}

	items, err := toDomainList(dtos)
	return items, int(total), err
}

type statusCount struct {
	Status string
	N      int
}

type deliveredTotals struct {
	WithEstimate  int
	OnTime        int
	CashCollected int64
}

func (r *GormDeliveryRepository) Stats(ctx context.Context, filter ports.StatsFilter) (ports.DeliveryStats, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&DeliveryDTO{}).Scopes(
			withDriver(filter.DriverID),
			withOrderDates(filter.DateFrom, filter.DateTo),
		)
	}

	var counts []statusCount
	if err := scoped().Select("status, count(*) AS n").Group("status").Scan(&counts).Error; err != nil {
		return ports.DeliveryStats{}, err
	}

	stats := ports.DeliveryStats{ByStatus: make(map[delivery.Status]int, len(counts))}
	for _, c := range counts {
		status, err := delivery.ParseStatus(c.Status)
		if err != nil {
			return ports.DeliveryStats{}, err
		}
		stats.ByStatus[status] = c.N
		stats.Total += c.N
	}

	var totals deliveredTotals
	if err := scoped().
		Where("status = ?", delivery.Delivered.String()).
		Select(`count(*) FILTER (WHERE estimated_at IS NOT NULL AND delivered_at IS NOT NULL) AS with_estimate,
			count(*) FILTER (WHERE delivered_at <= estimated_at) AS on_time,
			COALESCE(SUM(cash_collected), 0) AS cash_collected`).
		Scan(&totals).Error; err != nil {
		return ports.DeliveryStats{}, err
	}

	stats.WithEstimate = totals.WithEstimate
	stats.OnTime = totals.OnTime
	stats.CashCollected = totals.CashCollected
	return stats, nil
}

func (r *GormDeliveryRepository) ExpectedCash(ctx context.Context, driverID kernel.UUID, date time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&DeliveryDTO{}).
		Select("COALESCE(SUM(order_total), 0)").
		Where("status = ? AND payment_method = ? AND driver_id = ? AND order_date = ?",
			delivery.Delivered.String(), delivery.Cash.String(), driverID.Bytes(), kernel.DateOf(date)).
		Scan(&sum).Error
	return sum, err
}

func (r *GormDeliveryRepository) missingOrStale(ctx context.Context, id kernel.UUID) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&DeliveryDTO{}).Where("id = ?", id.Bytes()).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errs.NewObjectNotFoundError("delivery", id.String())
	}
	return errs.NewConcurrentModificationError("delivery", id.String())
}

func toDomainList(dtos []DeliveryDTO) ([]*delivery.Delivery, error) {
	out := make([]*delivery.Delivery, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func withStatuses(statuses []delivery.Status) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(statuses) == 0 {
			return db
		}
		names := make([]string, 0, len(statuses))
		for _, s := range statuses {
			names = append(names, s.String())
		}
		return db.Where("status IN ?", names)
	}
}

func withDriver(driverID *kernel.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if driverID == nil {
			return db
		}
		return db.Where("driver_id = ?", driverID.Bytes())
	}
}

func withOrderDates(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("order_date >= ?", kernel.DateOf(*from))
		}
		if to != nil {
			db = db.Where("order_date <= ?", kernel.DateOf(*to))
		}
		return db
	}
}

func withSearch(search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		pattern := pgerr.LikePattern(search)
		return db.Where("(number ILIKE ? OR address_text ILIKE ?)", pattern, pattern)
	}
}

func page(p ports.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Limit > 0 {
			db = db.Limit(p.Limit)
		}
		if p.Offset > 0 {
			db = db.Offset(p.Offset)
		}
		return db
	}
}
