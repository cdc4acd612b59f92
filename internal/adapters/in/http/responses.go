package http

import (
	"encoding/json"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

type List[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func locationOf(l kernel.Location) Location {
	return Location{Lat: l.Lat(), Lon: l.Lon()}
}

type Delivery struct {
	ID                 string     `json:"id"`
	Number             string     `json:"delivery_number"`
	OrderID            string     `json:"order_id"`
	OrderDate          string     `json:"order_date"`
	OrderTotal         int64      `json:"order_total"`
	PaymentMethod      string     `json:"payment_method"`
	WeightKg           float64    `json:"weight_kg"`
	Status             string     `json:"status"`
	Priority           int        `json:"priority"`
	Address            string     `json:"address"`
	Location           Location   `json:"location"`
	Zone               string     `json:"zone"`
	DriverID           *string    `json:"driver_id"`
	RouteID            *string    `json:"route_id"`
	EstimatedAt        *time.Time `json:"estimated_delivery_time"`
	DeliveredAt        *time.Time `json:"actual_delivery_time"`
	CashCollected      *int64     `json:"cash_collected"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func deliveryOf(d *delivery.Delivery) Delivery {
	order := d.Order()
	addr := d.Address()
	return Delivery{
		ID:                 d.ID().String(),
		Number:             d.Number(),
		OrderID:            order.OrderID().String(),
		OrderDate:          kernel.FormatDate(order.Date()),
		OrderTotal:         order.Total(),
		PaymentMethod:      order.Payment().String(),
		WeightKg:           order.WeightKg(),
		Status:             d.Status().String(),
		Priority:           int(d.Priority()),
		Address:            addr.Text(),
		Location:           locationOf(addr.Location()),
		Zone:               addr.Zone().String(),
		DriverID:           idString(d.DriverID()),
		RouteID:            idString(d.RouteID()),
		EstimatedAt:        d.EstimatedAt(),
		DeliveredAt:        d.DeliveredAt(),
		CashCollected:      d.CashCollected(),
		CancellationReason: d.CancellationReason(),
		FailureReason:      d.FailureReason(),
		CreatedAt:          d.CreatedAt(),
		UpdatedAt:          d.UpdatedAt(),
	}
}

func deliveriesOf(ds []*delivery.Delivery) []Delivery {
	out := make([]Delivery, 0, len(ds))
	for _, d := range ds {
		out = append(out, deliveryOf(d))
	}
	return out
}

type DeliveryStats struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	OnTimeRate    float64        `json:"on_time_rate"`
	CashCollected int64          `json:"cash_collected"`
}

func deliveryStatsOf(s queries.DeliveryStatsResponse) DeliveryStats {
	byStatus := make(map[string]int, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[status.String()] = n
	}
	return DeliveryStats{
		Total:         s.Total,
		ByStatus:      byStatus,
		OnTimeRate:    s.OnTimeRate,
		CashCollected: s.CashCollected,
	}
}

type Driver struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Name                 string    `json:"name"`
	Phone                string    `json:"phone"`
	VehicleType          string    `json:"vehicle_type"`
	VehiclePlate         string    `json:"vehicle_plate"`
	MaxCapacityKg        float64   `json:"max_capacity_kg"`
	Zones                []string  `json:"zone_coverage"`
	Status               string    `json:"status"`
	Rating               string    `json:"rating"`
	TotalDeliveries      int       `json:"total_deliveries"`
	SuccessfulDeliveries int       `json:"successful_deliveries"`
	Location             *Location `json:"current_location"`
	LocationAddress      string    `json:"current_address,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func driverOf(d *driver.Driver) Driver {
	zones := make([]string, 0, len(d.Zones()))
	for _, z := range d.Zones() {
		zones = append(zones, z.String())
	}

	var loc *Location
	if l := d.Location(); l != nil {
		v := locationOf(*l)
		loc = &v
	}

	return Driver{
		ID:                   d.ID().String(),
		UserID:               d.UserID().String(),
		Name:                 d.Name(),
		Phone:                d.Phone(),
		VehicleType:          d.VehicleType().String(),
		VehiclePlate:         d.VehiclePlate(),
		MaxCapacityKg:        d.MaxCapacityKg(),
		Zones:                zones,
		Status:               d.Status().String(),
		Rating:               d.Rating().StringFixed(2),
		TotalDeliveries:      d.TotalDeliveries(),
		SuccessfulDeliveries: d.SuccessfulDeliveries(),
		Location:             loc,
		LocationAddress:      d.LocationAddress(),
		CreatedAt:            d.CreatedAt(),
		UpdatedAt:            d.UpdatedAt(),
	}
}

type EligibleDriver struct {
	Driver
	RemainingKg float64 `json:"remaining_capacity_kg"`
}

type DriverStats struct {
	DriverID             string  `json:"driver_id"`
	Status               string  `json:"status"`
	Rating               string  `json:"rating"`
	TotalDeliveries      int     `json:"total_deliveries"`
	SuccessfulDeliveries int     `json:"successful_deliveries"`
	SuccessRate          float64 `json:"success_rate"`
	TotalRoutes          int     `json:"total_routes"`
	CompletedRoutes      int     `json:"completed_routes"`
	CancelledRoutes      int     `json:"cancelled_routes"`
	CashCollected        int64   `json:"cash_collected"`
}

func driverStatsOf(s queries.DriverStatsResponse) DriverStats {
	return DriverStats{
		DriverID:             s.DriverID.String(),
		Status:               s.Status.String(),
		Rating:               s.Rating.StringFixed(2),
		TotalDeliveries:      s.TotalDeliveries,
		SuccessfulDeliveries: s.SuccessfulDeliveries,
		SuccessRate:          s.SuccessRate,
		TotalRoutes:          s.TotalRoutes,
		CompletedRoutes:      s.CompletedRoutes,
		CancelledRoutes:      s.CancelledRoutes,
		CashCollected:        s.CashCollected,
	}
}

type Stop struct {
	DeliveryID     string     `json:"delivery_id"`
	Sequence       int        `json:"sequence"`
	WeightKg       float64    `json:"weight_kg"`
	Location       Location   `json:"location"`
	LegDistanceM   int        `json:"leg_distance_m"`
	LegDurationS   int        `json:"leg_duration_s"`
	PlannedArrival time.Time  `json:"planned_arrival"`
	Status         string     `json:"status"`
	CompletedAt    *time.Time `json:"completed_at"`
}

type Route struct {
	ID                  string          `json:"id"`
	Date                string          `json:"route_date"`
	Name                string          `json:"route_name"`
	DriverID            string          `json:"driver_id"`
	Status              string          `json:"status"`
	Stops               []Stop          `json:"stops"`
	Path                json.RawMessage `json:"path"`
	TotalDistanceM      int             `json:"total_distance_m"`
	EstimatedDurationS  int             `json:"estimated_duration_s"`
	ActualDurationS     *int            `json:"actual_duration_s"`
	StartTime           *time.Time      `json:"start_time"`
	EndTime             *time.Time      `json:"end_time"`
	CompletedDeliveries int             `json:"completed_deliveries"`
	TotalDeliveries     int             `json:"total_deliveries"`
	CancellationReason  string          `json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func routeOf(r *route.Route) (Route, error) {
	path, err := pathOf(r.Path())
	if err != nil {
		return Route{}, err
	}

	stops := make([]Stop, 0, len(r.Stops()))
	for _, s := range r.Stops() {
		stops = append(stops, Stop{
			DeliveryID:     s.DeliveryID.String(),
			Sequence:       s.Sequence,
			WeightKg:       s.WeightKg,
			Location:       locationOf(s.Location),
			LegDistanceM:   s.LegDistanceM,
			LegDurationS:   s.LegDurationS,
			PlannedArrival: s.PlannedArrival,
			Status:         s.Status.String(),
			CompletedAt:    s.CompletedAt,
		})
	}

	return Route{
		ID:                  r.ID().String(),
		Date:                kernel.FormatDate(r.Date()),
		Name:                r.Name(),
		DriverID:            r.DriverID().String(),
		Status:              r.Status().String(),
		Stops:               stops,
		Path:                path,
		TotalDistanceM:      r.TotalDistanceM(),
		EstimatedDurationS:  r.EstimatedDurationS(),
		ActualDurationS:     r.ActualDurationS(),
		StartTime:           r.StartTime(),
		EndTime:             r.EndTime(),
		CompletedDeliveries: r.CompletedDeliveries(),
		TotalDeliveries:     r.TotalDeliveries(),
		CancellationReason:  r.CancellationReason(),
		CreatedAt:           r.CreatedAt(),
		UpdatedAt:           r.UpdatedAt(),
	}, nil
}

func routesOf(rs []*route.Route) ([]Route, error) {
	out := make([]Route, 0, len(rs))
	for _, r := range rs {
		v, err := routeOf(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// pathOf encodes the stop sequence as a GeoJSON LineString, or a Point for a
// single stop. Coordinates are [lon, lat].
func pathOf(points []kernel.Location) (json.RawMessage, error) {
	if len(points) == 0 {
		return json.RawMessage("null"), nil
	}

	var g geom.T
	if len(points) == 1 {
		g = geom.NewPointFlat(geom.XY, []float64{points[0].Lon(), points[0].Lat()})
	} else {
		flat := make([]float64, 0, 2*len(points))
		for _, p := range points {
			flat = append(flat, p.Lon(), p.Lat())
		}
		g = geom.NewLineStringFlat(geom.XY, flat)
	}

	b, err := gjson.Marshal(g)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type OptimizeResult struct {
	Routes                []Route  `json:"routes"`
	UnassignedDeliveryIDs []string `json:"unassigned_delivery_ids"`
	FallbackUsed          bool     `json:"fallback_used"`
}

func optimizeResultOf(r commands.OptimizeRoutesResult) (OptimizeResult, error) {
	routes, err := routesOf(r.Routes)
	if err != nil {
		return OptimizeResult{}, err
	}
	unassigned := make([]string, 0, len(r.UnassignedDeliveryIDs))
	for _, id := range r.UnassignedDeliveryIDs {
		unassigned = append(unassigned, id.String())
	}
	return OptimizeResult{Routes: routes, UnassignedDeliveryIDs: unassigned, FallbackUsed: r.FallbackUsed}, nil
}

type CashEntry struct {
	DeliveryID string    `json:"delivery_id"`
	Amount     int64     `json:"amount"`
	RecordedAt time.Time `json:"recorded_at"`
}

type CashRecord struct {
	ID                   string      `json:"id"`
	Date                 string      `json:"date"`
	DriverID             string      `json:"driver_id"`
	RouteID              *string     `json:"route_id"`
	Entries              []CashEntry `json:"entries"`
	CollectedAmount      int64       `json:"collected_amount"`
	ExpectedAmount       *int64      `json:"expected_amount,omitempty"`
	DiscrepancyAmount    *int64      `json:"discrepancy_amount,omitempty"`
	ReconciliationStatus string      `json:"reconciliation_status,omitempty"`
	Closed               bool        `json:"closed"`
	Override             bool        `json:"override"`
	ClosingNote          string      `json:"closing_note,omitempty"`
	ClosedAt             *time.Time  `json:"closed_at"`
}

func cashRecordOf(r *cash.Record) CashRecord {
	entries := make([]CashEntry, 0, len(r.Entries()))
	for _, e := range r.Entries() {
		entries = append(entries, CashEntry{DeliveryID: e.DeliveryID.String(), Amount: e.Amount, RecordedAt: e.RecordedAt})
	}
	return CashRecord{
		ID:              r.ID().String(),
		Date:            kernel.FormatDate(r.Date()),
		DriverID:        r.DriverID().String(),
		RouteID:         idString(r.RouteID()),
		Entries:         entries,
		CollectedAmount: r.Collected(),
		Closed:          r.IsClosed(),
		Override:        r.Override(),
		ClosingNote:     r.ClosingNote(),
		ClosedAt:        r.ClosedAt(),
	}
}

func summarizedCashRecordOf(r *cash.Record, s cash.Summary) CashRecord {
	out := cashRecordOf(r)
	out.ExpectedAmount = &s.Expected
	out.DiscrepancyAmount = &s.Discrepancy
	out.ReconciliationStatus = s.Status.String()
	return out
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
