package http

import (
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/route"

	"github.com/labstack/echo/v4"
)

type optimizeRequest struct {
	Date     string `json:"date" validate:"required"`
	DriverID string `json:"driver_id" validate:"omitempty,uuid"`
}

type completeStopRequest struct {
	Outcome       string `json:"outcome" validate:"required,oneof=delivered failed"`
	Reason        string `json:"reason"`
	CashCollected *int64 `json:"cash_collected" validate:"omitempty,gte=0"`
}

type cancelRouteRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// GetRoutes handles GET /api/v1/routes.
func (s *Server) GetRoutes(c echo.Context) error {
	date, err := optionalDate(c.QueryParam("date"), "date")
	if err != nil {
		return err
	}
	var status *route.Status
	if raw := c.QueryParam("status"); raw != "" {
		st, parseErr := route.ParseStatus(raw)
		if parseErr != nil {
			return parseErr
		}
		status = &st
	}
	driverID, err := optionalID(c.QueryParam("driver_id"), "driver_id")
	if err != nil {
		return err
	}
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetRoutesQuery(date, status, driverID, limit, offset)
	if err != nil {
		return err
	}
	page, err := s.h.GetRoutes.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	items, err := routesOf(page.Items)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, List[Route]{Items: items, Total: page.Total})
}

// OptimizeRoutes handles POST /api/v1/routes/optimize.
func (s *Server) OptimizeRoutes(c echo.Context) error {
	req, err := bind[optimizeRequest](c)
	if err != nil {
		return err
	}
	date, err := requiredDate(req.Date, "date")
	if err != nil {
		return err
	}
	driverID, err := optionalID(req.DriverID, "driver_id")
	if err != nil {
		return err
	}

	cmd, err := commands.NewOptimizeRoutesCommand(date, driverID)
	if err != nil {
		return err
	}
	result, err := s.h.OptimizeRoutes.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	body, err := optimizeResultOf(result)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, body)
}

// StartRoute handles POST /api/v1/routes/{id}/start.
func (s *Server) StartRoute(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cmd, err := commands.NewStartRouteCommand(id)
	if err != nil {
		return err
	}
	rt, err := s.h.StartRoute.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return s.route(c, rt)
}

// CompleteStop handles POST /api/v1/routes/{id}/stops/{deliveryId}/complete.
func (s *Server) CompleteStop(c echo.Context) error {
	routeID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	deliveryID, err := pathID(c, "deliveryId")
	if err != nil {
		return err
	}
	req, err := bind[completeStopRequest](c)
	if err != nil {
		return err
	}
	outcome, err := route.ParseOutcome(req.Outcome)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCompleteStopCommand(routeID, deliveryID, outcome, req.Reason, req.CashCollected)
	if err != nil {
		return err
	}
	rt, err := s.h.CompleteStop.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return s.route(c, rt)
}

// CancelRoute handles POST /api/v1/routes/{id}/cancel.
func (s *Server) CancelRoute(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := bind[cancelRouteRequest](c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCancelRouteCommand(id, req.Reason)
	if err != nil {
		return err
	}
	rt, err := s.h.CancelRoute.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return s.route(c, rt)
}

func (s *Server) route(c echo.Context, rt *route.Route) error {
	body, err := routeOf(rt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, body)
}
