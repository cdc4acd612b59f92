// Package routerepo persists routes and their stops with GORM.
package routerepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
)

// PendingStopIndex is the partial unique index keeping a delivery on one pending stop.
const PendingStopIndex = "uq_route_stops_pending_delivery"

// RouteDTO represents the database structure of a route.
type RouteDTO struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Date                time.Time  `gorm:"type:date;not null;index"`
	Name                string     `gorm:"type:varchar(255);not null"`
	DriverID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status              string     `gorm:"type:varchar(16);not null;index"`
	TotalDistanceM      int        `gorm:"not null"`
	EstimatedDurationS  int        `gorm:"not null"`
	ActualDurationS     *int       `gorm:"type:integer"`
	StartTime           *time.Time `gorm:"type:timestamptz"`
	EndTime             *time.Time `gorm:"type:timestamptz"`
	CompletedDeliveries int        `gorm:"not null;default:0"`
	TotalDeliveries     int        `gorm:"not null"`
	CancellationReason  string     `gorm:"type:text;not null;default:''"`
	CreatedAt           time.Time  `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt           time.Time  `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	Version             int64      `gorm:"not null;default:0"`
	Stops               []StopDTO  `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
}

func (RouteDTO) TableName() string {
	return "routes"
}

// StopDTO is one row of route_stops, keyed by route and delivery.
type StopDTO struct {
	RouteID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DeliveryID     uuid.UUID  `gorm:"type:uuid;primaryKey;index"`
	Sequence       int        `gorm:"not null"`
	WeightKg       float64    `gorm:"type:double precision;not null"`
	Lat            float64    `gorm:"type:double precision;not null"`
	Lon            float64    `gorm:"type:double precision;not null"`
	LegDistanceM   int        `gorm:"not null"`
	LegDurationS   int        `gorm:"not null"`
	PlannedArrival time.Time  `gorm:"type:timestamptz;not null"`
	Status         string     `gorm:"type:varchar(16);not null"`
	CompletedAt    *time.Time `gorm:"type:timestamptz"`
}

func (StopDTO) TableName() string {
	return "route_stops"
}

func fromDomain(r *route.Route) RouteDTO {
	s := r.Snapshot()
	routeID := s.ID.Bytes()

	stops := make([]StopDTO, 0, len(s.Stops))
	for _, st := range s.Stops {
		stops = append(stops, stopFromDomain(routeID, st))
	}

	return RouteDTO{
		ID:                  routeID,
		Date:                s.Date,
		Name:                s.Name,
		DriverID:            s.DriverID.Bytes(),
		Status:              s.Status.String(),
		TotalDistanceM:      s.TotalDistanceM,
		EstimatedDurationS:  s.EstimatedDurationS,
		ActualDurationS:     s.ActualDurationS,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		CompletedDeliveries: s.CompletedDeliveries,
		TotalDeliveries:     s.TotalDeliveries,
		CancellationReason:  s.CancellationReason,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		Version:             s.Version,
		Stops:               stops,
	}
}

func stopFromDomain(routeID uuid.UUID, st route.Stop) StopDTO {
	return StopDTO{
		RouteID:        routeID,
		DeliveryID:     st.DeliveryID.Bytes(),
		Sequence:       st.Sequence,
		WeightKg:       st.WeightKg,
		Lat:            st.Location.Lat(),
		Lon:            st.Location.Lon(),
		LegDistanceM:   st.LegDistanceM,
		LegDurationS:   st.LegDurationS,
		PlannedArrival: st.PlannedArrival,
		Status:         st.Status.String(),
		CompletedAt:    st.CompletedAt,
	}
}

func toDomain(dto RouteDTO) (*route.Route, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}
	status, err := route.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	stops := make([]route.Stop, 0, len(dto.Stops))
	for _, sd := range dto.Stops {
		st, stopErr := stopToDomain(sd)
		if stopErr != nil {
			return nil, stopErr
		}
		stops = append(stops, st)
	}

	return route.Restore(route.Snapshot{
		ID:                  id,
		Date:                dto.Date,
		Name:                dto.Name,
		DriverID:            driverID,
		Stops:               stops,
		Status:              status,
		TotalDistanceM:      dto.TotalDistanceM,
		EstimatedDurationS:  dto.EstimatedDurationS,
		ActualDurationS:     dto.ActualDurationS,
		StartTime:           utc(dto.StartTime),
		EndTime:             utc(dto.EndTime),
		CompletedDeliveries: dto.CompletedDeliveries,
		TotalDeliveries:     dto.TotalDeliveries,
		CancellationReason:  dto.CancellationReason,
		CreatedAt:           dto.CreatedAt.UTC(),
		UpdatedAt:           dto.UpdatedAt.UTC(),
		Version:             dto.Version,
	})
}

func stopToDomain(dto StopDTO) (route.Stop, error) {
	deliveryID, err := kernel.UUIDFromBytes(dto.DeliveryID[:])
	if err != nil {
		return route.Stop{}, err
	}
	loc, err := kernel.NewLocation(dto.Lat, dto.Lon)
	if err != nil {
		return route.Stop{}, err
	}
	status, err := route.ParseStopStatus(dto.Status)
	if err != nil {
		return route.Stop{}, err
	}

	return route.Stop{
		DeliveryID:     deliveryID,
		Sequence:       dto.Sequence,
		WeightKg:       dto.WeightKg,
		Location:       loc,
		LegDistanceM:   dto.LegDistanceM,
		LegDurationS:   dto.LegDurationS,
		PlannedArrival: dto.PlannedArrival.UTC(),
		Status:         status,
		CompletedAt:    utc(dto.CompletedAt),
	}, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
