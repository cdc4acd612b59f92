// Package http is the REST surface of the dispatch core. Handlers decode the
// request, build the command or query, and let ErrorHandler map failures to
// status codes.
package http

import (
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers are the use cases reachable over HTTP.
type Handlers struct {
	CreateDelivery      commands.CreateDeliveryCommandHandler
	TransitionDelivery  commands.TransitionDeliveryCommandHandler
	CreateDriver        commands.CreateDriverCommandHandler
	UpdateDriver        commands.UpdateDriverCommandHandler
	OptimizeRoutes      commands.OptimizeRoutesCommandHandler
	StartRoute          commands.StartRouteCommandHandler
	CompleteStop        commands.CompleteStopCommandHandler
	CancelRoute         commands.CancelRouteCommandHandler
	RecordCollection    commands.RecordCollectionCommandHandler
	CloseReconciliation commands.CloseReconciliationCommandHandler

	GetDeliveries       queries.GetDeliveriesQueryHandler
	ListUnassigned      queries.ListUnassignedQueryHandler
	GetDeliveryStats    queries.GetDeliveryStatsQueryHandler
	GetDrivers          queries.GetDriversQueryHandler
	ListEligibleDrivers queries.ListEligibleDriversQueryHandler
	GetDriverDeliveries queries.GetDriverDeliveriesQueryHandler
	GetDriverStats      queries.GetDriverStatsQueryHandler
	GetRoutes           queries.GetRoutesQueryHandler
	GetDailySummary     queries.GetDailySummaryQueryHandler
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	h Handlers
}

func NewServer(h Handlers) *Server {
	return &Server{h: h}
}

// Register mounts the /api/v1 routes on e.
func (s *Server) Register(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/deliveries", s.GetDeliveries)
	api.POST("/deliveries", s.CreateDelivery)
	api.GET("/deliveries/unassigned", s.ListUnassigned)
	api.GET("/deliveries/stats", s.GetDeliveryStats)
	api.POST("/deliveries/:id/transitions", s.TransitionDelivery)

	api.GET("/drivers", s.GetDrivers)
	api.POST("/drivers", s.CreateDriver)
	api.GET("/drivers/eligible", s.ListEligibleDrivers)
	api.PATCH("/drivers/:id", s.UpdateDriver)
	api.GET("/drivers/:id/deliveries", s.GetDriverDeliveries)
	api.GET("/drivers/:id/stats", s.GetDriverStats)

	api.GET("/routes", s.GetRoutes)
	api.POST("/routes/optimize", s.OptimizeRoutes)
	api.POST("/routes/:id/start", s.StartRoute)
	api.POST("/routes/:id/stops/:deliveryId/complete", s.CompleteStop)
	api.POST("/routes/:id/cancel", s.CancelRoute)

	api.POST("/cash/collections", s.RecordCollection)
	api.GET("/cash/summary", s.GetDailySummary)
	api.POST("/cash/records/:id/close", s.CloseReconciliation)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	BodyLimit      string
}

// NewEcho builds the echo instance with the shared middleware chain, the health
// probe and the Prometheus endpoint.
func NewEcho(cfg Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = ErrorHandler(logger)

	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "1M"
	}

	e.Use(RequestID())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
