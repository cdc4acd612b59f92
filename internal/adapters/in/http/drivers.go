package http

import (
	"net/http"
	"strconv"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type createDriverRequest struct {
	UserID        string   `json:"user_id" validate:"required,uuid"`
	Name          string   `json:"name" validate:"required,max=255"`
	Phone         string   `json:"phone" validate:"required,max=32"`
	VehicleType   string   `json:"vehicle_type" validate:"required,oneof=motorcycle car van truck"`
	VehiclePlate  string   `json:"vehicle_plate" validate:"required,max=32"`
	MaxCapacityKg float64  `json:"max_capacity_kg" validate:"gt=0"`
	Zones         []string `json:"zone_coverage" validate:"required,min=1,dive,required"`
}

type locationRequest struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
	Address string  `json:"address"`
}

type updateDriverRequest struct {
	Status        *string          `json:"status" validate:"omitempty,oneof=available busy offline suspended"`
	Phone         *string          `json:"phone" validate:"omitempty,max=32"`
	VehicleType   *string          `json:"vehicle_type" validate:"omitempty,oneof=motorcycle car van truck"`
	VehiclePlate  *string          `json:"vehicle_plate" validate:"omitempty,max=32"`
	MaxCapacityKg *float64         `json:"max_capacity_kg" validate:"omitempty,gt=0"`
	Zones         []string         `json:"zone_coverage" validate:"omitempty,dive,required"`
	Location      *locationRequest `json:"current_location"`
}

// GetDrivers handles GET /api/v1/drivers.
func (s *Server) GetDrivers(c echo.Context) error {
	var status *driver.Status
	if raw := c.QueryParam("status"); raw != "" {
		st, err := driver.ParseStatus(raw)
		if err != nil {
			return err
		}
		status = &st
	}
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetDriversQuery(status, c.QueryParam("zone"), c.QueryParam("search"), limit, offset)
	if err != nil {
		return err
	}
	page, err := s.h.GetDrivers.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	items := make([]Driver, 0, len(page.Items))
	for _, d := range page.Items {
		items = append(items, driverOf(d))
	}
	return c.JSON(http.StatusOK, List[Driver]{Items: items, Total: page.Total})
}

// CreateDriver handles POST /api/v1/drivers.
func (s *Server) CreateDriver(c echo.Context) error {
	req, err := bind[createDriverRequest](c)
	if err != nil {
		return err
	}

	userID, err := requiredID(req.UserID, "user_id")
	if err != nil {
		return err
	}
	vehicle, err := driver.ParseVehicleType(req.VehicleType)
	if err != nil {
		return err
	}
	zones, err := zonesOf(req.Zones)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateDriverCommand(driver.Profile{
		UserID:        userID,
		Name:          req.Name,
		Phone:         req.Phone,
		VehicleType:   vehicle,
		VehiclePlate:  req.VehiclePlate,
		MaxCapacityKg: req.MaxCapacityKg,
		Zones:         zones,
	})
	if err != nil {
		return err
	}
	d, err := s.h.CreateDriver.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, driverOf(d))
}

// UpdateDriver handles PATCH /api/v1/drivers/{id}.
func (s *Server) UpdateDriver(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := bind[updateDriverRequest](c)
	if err != nil {
		return err
	}

	changes := commands.DriverChanges{
		Phone:         req.Phone,
		VehiclePlate:  req.VehiclePlate,
		MaxCapacityKg: req.MaxCapacityKg,
	}
	if req.Status != nil {
		st, parseErr := driver.ParseStatus(*req.Status)
		if parseErr != nil {
			return parseErr
		}
		changes.Status = &st
	}
	if req.VehicleType != nil {
		vt, parseErr := driver.ParseVehicleType(*req.VehicleType)
		if parseErr != nil {
			return parseErr
		}
		changes.VehicleType = &vt
	}
	if req.Zones != nil {
		if changes.Zones, err = zonesOf(req.Zones); err != nil {
			return err
		}
	}
	if req.Location != nil {
		loc, locErr := kernel.NewLocation(req.Location.Lat, req.Location.Lon)
		if locErr != nil {
			return locErr
		}
		changes.Location = &loc
		changes.LocationAddress = req.Location.Address
	}

	cmd, err := commands.NewUpdateDriverCommand(id, changes)
	if err != nil {
		return err
	}
	d, err := s.h.UpdateDriver.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, driverOf(d))
}

// ListEligibleDrivers handles GET /api/v1/drivers/eligible.
func (s *Server) ListEligibleDrivers(c echo.Context) error {
	date, err := requiredDate(c.QueryParam("date"), "date")
	if err != nil {
		return err
	}
	var required float64
	if raw := c.QueryParam("capacity_kg"); raw != "" {
		if required, err = strconv.ParseFloat(raw, 64); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("capacity_kg", err)
		}
	}

	query, err := queries.NewListEligibleDriversQuery(c.QueryParam("zone"), required, date)
	if err != nil {
		return err
	}
	eligible, err := s.h.ListEligibleDrivers.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	items := make([]EligibleDriver, 0, len(eligible))
	for _, e := range eligible {
		items = append(items, EligibleDriver{Driver: driverOf(e.Driver), RemainingKg: e.RemainingKg})
	}
	return c.JSON(http.StatusOK, List[EligibleDriver]{Items: items, Total: len(items)})
}

// GetDriverDeliveries handles GET /api/v1/drivers/{id}/deliveries.
func (s *Server) GetDriverDeliveries(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	statuses, err := statusesOf(multiValue(c, "status"))
	if err != nil {
		return err
	}
	from, err := optionalDate(c.QueryParam("date_from"), "date_from")
	if err != nil {
		return err
	}
	to, err := optionalDate(c.QueryParam("date_to"), "date_to")
	if err != nil {
		return err
	}
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetDriverDeliveriesQuery(id, statuses, from, to, limit, offset)
	if err != nil {
		return err
	}
	page, err := s.h.GetDriverDeliveries.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, List[Delivery]{Items: deliveriesOf(page.Items), Total: page.Total})
}

// GetDriverStats handles GET /api/v1/drivers/{id}/stats.
func (s *Server) GetDriverStats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	query, err := queries.NewGetDriverStatsQuery(id)
	if err != nil {
		return err
	}
	stats, err := s.h.GetDriverStats.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, driverStatsOf(stats))
}

func zonesOf(values []string) ([]kernel.Zone, error) {
	zones := make([]kernel.Zone, 0, len(values))
	for _, v := range values {
		z, err := kernel.NewZone(v)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}
