package http

import (
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

type createDeliveryRequest struct {
	OrderID       string  `json:"order_id" validate:"required,uuid"`
	OrderDate     string  `json:"order_date" validate:"required"`
	OrderTotal    int64   `json:"order_total" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash card transfer credit"`
	WeightKg      float64 `json:"weight_kg" validate:"gt=0"`
	Address       string  `json:"address" validate:"required"`
	Lat           float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon           float64 `json:"lon" validate:"gte=-180,lte=180"`
	Zone          string  `json:"zone"`
	Priority      int     `json:"priority" validate:"omitempty,min=1,max=3"`
}

type transitionRequest struct {
	Status        string `json:"status" validate:"required"`
	Reason        string `json:"reason"`
	CashCollected *int64 `json:"cash_collected" validate:"omitempty,gte=0"`
}

// GetDeliveries handles GET /api/v1/deliveries.
func (s *Server) GetDeliveries(c echo.Context) error {
	statuses, err := statusesOf(multiValue(c, "status"))
	if err != nil {
		return err
	}
	criteria := queries.DeliveryCriteria{Statuses: statuses, Search: c.QueryParam("search")}
	if criteria.DriverID, err = optionalID(c.QueryParam("driver_id"), "driver_id"); err != nil {
		return err
	}
	if criteria.DateFrom, err = optionalDate(c.QueryParam("date_from"), "date_from"); err != nil {
		return err
	}
	if criteria.DateTo, err = optionalDate(c.QueryParam("date_to"), "date_to"); err != nil {
		return err
	}
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetDeliveriesQuery(criteria, limit, offset)
	if err != nil {
		return err
	}
	page, err := s.h.GetDeliveries.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, List[Delivery]{Items: deliveriesOf(page.Items), Total: page.Total})
}

// CreateDelivery handles POST /api/v1/deliveries.
func (s *Server) CreateDelivery(c echo.Context) error {
	req, err := bind[createDeliveryRequest](c)
	if err != nil {
		return err
	}

	orderID, err := requiredID(req.OrderID, "order_id")
	if err != nil {
		return err
	}
	orderDate, err := requiredDate(req.OrderDate, "order_date")
	if err != nil {
		return err
	}
	payment, err := delivery.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return err
	}
	order, err := delivery.NewOrderRef(orderID, orderDate, req.OrderTotal, payment, req.WeightKg)
	if err != nil {
		return err
	}
	location, err := kernel.NewLocation(req.Lat, req.Lon)
	if err != nil {
		return err
	}
	priority := delivery.Normal
	if req.Priority != 0 {
		if priority, err = delivery.NewPriority(req.Priority); err != nil {
			return err
		}
	}

	cmd, err := commands.NewCreateDeliveryCommand(order, req.Address, location, req.Zone, priority)
	if err != nil {
		return err
	}
	d, err := s.h.CreateDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, deliveryOf(d))
}

// TransitionDelivery handles POST /api/v1/deliveries/{id}/transitions.
func (s *Server) TransitionDelivery(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := bind[transitionRequest](c)
	if err != nil {
		return err
	}
	to, err := delivery.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	cmd, err := commands.NewTransitionDeliveryCommand(id, to, req.Reason, req.CashCollected)
	if err != nil {
		return err
	}
	d, err := s.h.TransitionDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deliveryOf(d))
}

// ListUnassigned handles GET /api/v1/deliveries/unassigned.
func (s *Server) ListUnassigned(c echo.Context) error {
	date, err := requiredDate(c.QueryParam("date"), "date")
	if err != nil {
		return err
	}
	query, err := queries.NewListUnassignedQuery(date, c.QueryParam("zone"))
	if err != nil {
		return err
	}

	items := make([]Delivery, 0)
	for d, err := range s.h.ListUnassigned.Handle(c.Request().Context(), query) {
		if err != nil {
			return err
		}
		items = append(items, deliveryOf(d))
	}
	return c.JSON(http.StatusOK, List[Delivery]{Items: items, Total: len(items)})
}

// GetDeliveryStats handles GET /api/v1/deliveries/stats.
func (s *Server) GetDeliveryStats(c echo.Context) error {
	from, err := optionalDate(c.QueryParam("date_from"), "date_from")
	if err != nil {
		return err
	}
	to, err := optionalDate(c.QueryParam("date_to"), "date_to")
	if err != nil {
		return err
	}
	driverID, err := optionalID(c.QueryParam("driver_id"), "driver_id")
	if err != nil {
		return err
	}

	query, err := queries.NewGetDeliveryStatsQuery(from, to, driverID)
	if err != nil {
		return err
	}
	stats, err := s.h.GetDeliveryStats.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deliveryStatsOf(stats))
}

func statusesOf(values []string) ([]delivery.Status, error) {
	out := make([]delivery.Status, 0, len(values))
	for _, v := range values {
		st, err := delivery.ParseStatus(v)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
