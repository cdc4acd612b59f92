// Package driverrepo persists the driver registry with GORM.
package driverrepo

import (
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DriverDTO represents the database structure of a driver. Zones are a text[] column
// so eligibility can filter with ANY.
type DriverDTO struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID               uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Name                 string          `gorm:"type:varchar(255);not null"`
	Phone                string          `gorm:"type:varchar(32);not null"`
	VehicleType          string          `gorm:"type:varchar(16);not null"`
	VehiclePlate         string          `gorm:"type:varchar(32);not null"`
	MaxCapacityKg        float64         `gorm:"type:double precision;not null"`
	Zones                pq.StringArray  `gorm:"type:text[];not null"`
	Status               string          `gorm:"type:varchar(16);not null;index"`
	Rating               decimal.Decimal `gorm:"type:numeric(10,8);not null"`
	TotalDeliveries      int             `gorm:"not null;default:0"`
	SuccessfulDeliveries int             `gorm:"not null;default:0"`
	LocationLat          *float64        `gorm:"type:double precision"`
	LocationLon          *float64        `gorm:"type:double precision"`
	LocationAddress      string          `gorm:"type:text;not null;default:''"`
	CreatedAt            time.Time       `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt            time.Time       `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	Version              int64           `gorm:"not null;default:0"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(d *driver.Driver) DriverDTO {
	s := d.Snapshot()

	zones := make(pq.StringArray, 0, len(s.Zones))
	for _, z := range s.Zones {
		zones = append(zones, z.String())
	}

	dto := DriverDTO{
		ID:                   s.ID.Bytes(),
		UserID:               s.UserID.Bytes(),
		Name:                 s.Name,
		Phone:                s.Phone,
		VehicleType:          s.VehicleType.String(),
		VehiclePlate:         s.VehiclePlate,
		MaxCapacityKg:        s.MaxCapacityKg,
		Zones:                zones,
		Status:               s.Status.String(),
		Rating:               s.Rating,
		TotalDeliveries:      s.TotalDeliveries,
		SuccessfulDeliveries: s.SuccessfulDeliveries,
		LocationAddress:      s.LocationAddress,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		Version:              s.Version,
	}
	if s.Location != nil {
		lat, lon := s.Location.Lat(), s.Location.Lon()
		dto.LocationLat, dto.LocationLon = &lat, &lon
	}
	return dto
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}
	vehicle, err := driver.ParseVehicleType(dto.VehicleType)
	if err != nil {
		return nil, err
	}
	status, err := driver.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var loc *kernel.Location
	if dto.LocationLat != nil && dto.LocationLon != nil {
		l, locErr := kernel.NewLocation(*dto.LocationLat, *dto.LocationLon)
		if locErr != nil {
			return nil, locErr
		}
		loc = &l
	}

	zones := make([]kernel.Zone, 0, len(dto.Zones))
	for _, z := range dto.Zones {
		zones = append(zones, kernel.Zone(z))
	}

	return driver.Restore(driver.Snapshot{
		ID:                   id,
		UserID:               userID,
		Name:                 dto.Name,
		Phone:                dto.Phone,
		VehicleType:          vehicle,
		VehiclePlate:         dto.VehiclePlate,
		MaxCapacityKg:        dto.MaxCapacityKg,
		Zones:                zones,
		Status:               status,
		Rating:               dto.Rating,
		TotalDeliveries:      dto.TotalDeliveries,
		SuccessfulDeliveries: dto.SuccessfulDeliveries,
		Location:             loc,
		LocationAddress:      dto.LocationAddress,
		CreatedAt:            dto.CreatedAt.UTC(),
		UpdatedAt:            dto.UpdatedAt.UTC(),
		Version:              dto.Version,
	})
}
