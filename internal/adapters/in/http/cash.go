package http

import (
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

type recordCollectionRequest struct {
	DriverID   string `json:"driver_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required"`
	DeliveryID string `json:"delivery_id" validate:"required,uuid"`
	Amount     int64  `json:"amount" validate:"gte=0"`
}

type closeReconciliationRequest struct {
	Note     string `json:"note" validate:"max=1000"`
	Override bool   `json:"override"`
}

// RecordCollection handles POST /api/v1/cash/collections.
func (s *Server) RecordCollection(c echo.Context) error {
	req, err := bind[recordCollectionRequest](c)
	if err != nil {
		return err
	}
	driverID, err := requiredID(req.DriverID, "driver_id")
	if err != nil {
		return err
	}
	date, err := requiredDate(req.Date, "date")
	if err != nil {
		return err
	}
	deliveryID, err := requiredID(req.DeliveryID, "delivery_id")
	if err != nil {
		return err
	}

	cmd, err := commands.NewRecordCollectionCommand(driverID, date, deliveryID, req.Amount)
	if err != nil {
		return err
	}
	rec, err := s.h.RecordCollection.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cashRecordOf(rec))
}

// GetDailySummary handles GET /api/v1/cash/summary.
func (s *Server) GetDailySummary(c echo.Context) error {
	date, err := requiredDate(c.QueryParam("date"), "date")
	if err != nil {
		return err
	}
	driverID, err := optionalID(c.QueryParam("driver_id"), "driver_id")
	if err != nil {
		return err
	}

	query, err := queries.NewGetDailySummaryQuery(date, driverID)
	if err != nil {
		return err
	}
	lines, err := s.h.GetDailySummary.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	items := make([]CashRecord, 0, len(lines))
	for _, l := range lines {
		items = append(items, summarizedCashRecordOf(l.Record, l.Summary))
	}
	return c.JSON(http.StatusOK, List[CashRecord]{Items: items, Total: len(items)})
}

// CloseReconciliation handles POST /api/v1/cash/records/{id}/close.
func (s *Server) CloseReconciliation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := bind[closeReconciliationRequest](c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCloseReconciliationCommand(id, req.Note, req.Override)
	if err != nil {
		return err
	}
	result, err := s.h.CloseReconciliation.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summarizedCashRecordOf(result.Record, result.Summary))
}
