// Package deliveryrepo persists the delivery ledger with GORM.
// Statuses and payment methods are stored in their lowercase wire form so the
// table stays readable from psql and reports.
package deliveryrepo

import (
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

const (
	// LiveOrderIndex is the partial unique index allowing one non-cancelled delivery per order.
	LiveOrderIndex = "uq_deliveries_live_order"
	NumberIndex    = "uq_deliveries_number"
)

// DeliveryDTO represents the database structure of a delivery.
type DeliveryDTO struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Number             string     `gorm:"type:varchar(32);not null;uniqueIndex:uq_deliveries_number"`
	OrderID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderDate          time.Time  `gorm:"type:date;not null;index"`
	OrderTotal         int64      `gorm:"type:bigint;not null"`
	PaymentMethod      string     `gorm:"type:varchar(16);not null"`
	WeightKg           float64    `gorm:"type:double precision;not null"`
	Status             string     `gorm:"type:varchar(16);not null;index"`
	Priority           int        `gorm:"type:smallint;not null"`
	Address            AddressDTO `gorm:"embedded;embeddedPrefix:address_"`
	DriverID           *uuid.UUID `gorm:"type:uuid;index"`
	RouteID            *uuid.UUID `gorm:"type:uuid;index"`
	EstimatedAt        *time.Time `gorm:"type:timestamptz"`
	DeliveredAt        *time.Time `gorm:"type:timestamptz"`
	CashCollected      *int64     `gorm:"type:bigint"`
	CancellationReason string     `gorm:"type:text;not null;default:''"`
	FailureReason      string     `gorm:"type:text;not null;default:''"`
	CreatedAt          time.Time  `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt          time.Time  `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	Version            int64      `gorm:"not null;default:0"`
}

func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// AddressDTO is the drop-off point embedded in the deliveries table.
type AddressDTO struct {
	Text string  `gorm:"type:text;not null"`
	Lat  float64 `gorm:"type:double precision;not null"`
	Lon  float64 `gorm:"type:double precision;not null"`
	Zone string  `gorm:"type:varchar(64);not null;index"`
}

func fromDomain(d *delivery.Delivery) DeliveryDTO {
	s := d.Snapshot()
	return DeliveryDTO{
		ID:            s.ID.Bytes(),
		Number:        s.Number,
		OrderID:       s.Order.OrderID().Bytes(),
		OrderDate:     s.Order.Date(),
		OrderTotal:    s.Order.Total(),
		PaymentMethod: s.Order.Payment().String(),
		WeightKg:      s.Order.WeightKg(),
		Status:        s.Status.String(),
		Priority:      int(s.Priority),
		Address: AddressDTO{
			Text: s.Address.Text(),
			Lat:  s.Address.Location().Lat(),
			Lon:  s.Address.Location().Lon(),
			Zone: s.Address.Zone().String(),
		},
		DriverID:           rawID(s.DriverID),
		RouteID:            rawID(s.RouteID),
		EstimatedAt:        s.EstimatedAt,
		DeliveredAt:        s.DeliveredAt,
		CashCollected:      s.CashCollected,
		CancellationReason: s.CancellationReason,
		FailureReason:      s.FailureReason,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		Version:            s.Version,
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	payment, err := delivery.ParsePaymentMethod(dto.PaymentMethod)
	if err != nil {
		return nil, err
	}
	order, err := delivery.NewOrderRef(orderID, dto.OrderDate, dto.OrderTotal, payment, dto.WeightKg)
	if err != nil {
		return nil, err
	}
	loc, err := kernel.NewLocation(dto.Address.Lat, dto.Address.Lon)
	if err != nil {
		return nil, err
	}
	address, err := delivery.NewAddress(dto.Address.Text, loc, kernel.Zone(dto.Address.Zone))
	if err != nil {
		return nil, err
	}
	status, err := delivery.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	driverID, err := optionalID(dto.DriverID)
	if err != nil {
		return nil, err
	}
	routeID, err := optionalID(dto.RouteID)
	if err != nil {
		return nil, err
	}

	return delivery.Restore(delivery.Snapshot{
		ID:                 id,
		Order:              order,
		Number:             dto.Number,
		Status:             status,
		Priority:           delivery.Priority(dto.Priority),
		Address:            address,
		DriverID:           driverID,
		RouteID:            routeID,
		EstimatedAt:        utc(dto.EstimatedAt),
		DeliveredAt:        utc(dto.DeliveredAt),
		CashCollected:      dto.CashCollected,
		CancellationReason: dto.CancellationReason,
		FailureReason:      dto.FailureReason,
		CreatedAt:          dto.CreatedAt.UTC(),
		UpdatedAt:          dto.UpdatedAt.UTC(),
		Version:            dto.Version,
	})
}

func rawID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func optionalID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes((*raw)[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
