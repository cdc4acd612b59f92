package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/lease"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"
	"dispatch/internal/pkg/retry"

	"go.uber.org/zap"
)

// OptimizeRoutesConfig tunes route building.
type OptimizeRoutesConfig struct {
	LeaseTTL      time.Duration
	LeaseWait     time.Duration
	OracleTimeout time.Duration

	// Depot is the start point of drivers without a known location.
	Depot kernel.Location
	// ShiftStart is the offset from midnight UTC of the route date at which routes begin.
	ShiftStart  time.Duration
	ServiceTime time.Duration

	MaxStopsPerRoute int
	MultiRoutePerDay bool
	TwoOptEnabled    bool

	// PageSize bounds each read of pending deliveries.
	PageSize int
}

// OptimizeRoutesResult lists the routes created by one run.
type OptimizeRoutesResult struct {
	Routes                []*route.Route
	UnassignedDeliveryIDs []kernel.UUID
	// FallbackUsed is set when any cost matrix came from the straight-line fallback.
	FallbackUsed bool
}

// OptimizeRoutesCommandHandler builds routes for the pending deliveries of a date.
//
// A run holds the optimization lease of the date for its whole duration, so two runs
// for the same date never interleave. Deliveries are split between drivers by the
// RoutePartitioner and every group is ordered by the StopSequencer over a cost matrix
// from the GeoCostOracle. When the oracle fails or exceeds OracleTimeout the
// straight-line fallback prices the group instead.
//
// Each route is stored in its own unit of work together with the assignment of its
// deliveries. If that fails the deliveries of the route are reported as unassigned
// and the run continues with the next route.
//
// Re-running for the same date considers only deliveries that are still pending.
type OptimizeRoutesCommandHandler struct {
	uowFactory UoWFactory
	leases     ports.LeaseManager
	oracle     ports.GeoCostOracle
	fallback   ports.GeoCostOracle
	clock      ports.Clock
	cfg        OptimizeRoutesConfig
	log        *zap.Logger
}

func NewOptimizeRoutesCommandHandler(
	uowFactory UoWFactory,
	leases ports.LeaseManager,
	oracle ports.GeoCostOracle,
	fallback ports.GeoCostOracle,
	clock ports.Clock,
	cfg OptimizeRoutesConfig,
	log *zap.Logger,
) OptimizeRoutesCommandHandler {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if oracle == nil {
		oracle = fallback
	}
	return OptimizeRoutesCommandHandler{
		uowFactory: uowFactory,
		leases:     leases,
		oracle:     oracle,
		fallback:   fallback,
		clock:      clock,
		cfg:        cfg,
		log:        logger.Component(log, "route-builder"),
	}
}

func (h OptimizeRoutesCommandHandler) Handle(ctx context.Context, cmd OptimizeRoutesCommand) (OptimizeRoutesResult, error) {
	if err := cmd.Validate(); err != nil {
		return OptimizeRoutesResult{}, err
	}

	started := time.Now()
	log := h.log.With(zap.String("date", kernel.FormatDate(cmd.Date())))

	held, err := h.acquire(ctx, cmd.Date())
	if err != nil {
		metrics.ObserveOptimization("lease_unavailable", started, 0)
		return OptimizeRoutesResult{}, err
	}
	defer func() {
		if err := h.leases.Release(context.WithoutCancel(ctx), held); err != nil {
			log.Warn("failed to release optimization lease", zap.Error(err))
		}
	}()

	result, err := h.optimize(ctx, cmd, log)
	if err != nil {
		metrics.ObserveOptimization("error", started, 0)
		log.Error("route optimization failed", zap.Error(err))
		return OptimizeRoutesResult{}, err
	}

	metrics.ObserveOptimization("success", started, len(result.UnassignedDeliveryIDs))
	log.Info("route optimization finished",
		zap.Int("routes", len(result.Routes)),
		zap.Int("unassigned", len(result.UnassignedDeliveryIDs)),
		zap.Bool("fallback_used", result.FallbackUsed),
		zap.Duration("took", time.Since(started)),
	)
	return result, nil
}

// acquire waits up to LeaseWait for the lease of date.
func (h OptimizeRoutesCommandHandler) acquire(ctx context.Context, date time.Time) (lease.Lease, error) {
	holder := lease.NewHolderToken()

	var held lease.Lease
	err := retry.Until(ctx, h.cfg.LeaseWait, lease.ErrHeld, func(ctx context.Context) error {
		l, err := lease.New(date, holder, h.cfg.LeaseTTL, h.clock())
		if err != nil {
			return err
		}
		if err = h.leases.TryAcquire(ctx, l); err != nil {
			return err
		}
		held = l
		return nil
	})
	if errors.Is(err, lease.ErrHeld) {
		return lease.Lease{}, errs.NewInvalidStateError("optimization lease", lease.Key(date), "held",
			"another optimization for this date is running")
	}
	return held, err
}

func (h OptimizeRoutesCommandHandler) optimize(
	ctx context.Context,
	cmd OptimizeRoutesCommand,
	log *zap.Logger,
) (OptimizeRoutesResult, error) {
	reader := h.uowFactory.Create()

	pending, err := h.pendingDeliveries(ctx, reader.DeliveryRepository(), cmd.Date())
	if err != nil {
		return OptimizeRoutesResult{}, err
	}

	result := OptimizeRoutesResult{
		Routes:                make([]*route.Route, 0),
		UnassignedDeliveryIDs: make([]kernel.UUID, 0),
	}
	if len(pending) == 0 {
		return result, nil
	}

	candidates, err := h.candidates(ctx, reader, cmd)
	if err != nil {
		return OptimizeRoutesResult{}, err
	}

	partition := services.NewRoutePartitioner(services.PartitionPolicy{
		MaxStopsPerRoute: h.cfg.MaxStopsPerRoute,
		MultiRoutePerDay: h.cfg.MultiRoutePerDay,
	}).Partition(pending, candidates)

	for _, d := range partition.Unassigned {
		result.UnassignedDeliveryIDs = append(result.UnassignedDeliveryIDs, d.ID())
	}

	for i, a := range partition.Assignments {
		rt, fallbackUsed, err := h.buildRoute(ctx, cmd.Date(), i+1, a)
		result.FallbackUsed = result.FallbackUsed || fallbackUsed
		if err == nil {
			err = h.persistRoute(ctx, rt)
		}
		if err != nil {
			if ctx.Err() != nil {
				return OptimizeRoutesResult{}, ctx.Err()
			}
			log.Warn("route not stored, its deliveries stay pending",
				zap.String("driver_id", a.Driver.ID().String()),
				zap.String("zone", a.Zone.String()),
				zap.Error(err),
			)
			for _, d := range a.Deliveries {
				result.UnassignedDeliveryIDs = append(result.UnassignedDeliveryIDs, d.ID())
			}
			continue
		}

		metrics.RouteTransition(rt.Status().String())
		for range rt.Stops() {
			metrics.DeliveryTransition(delivery.Assigned.String())
		}
		result.Routes = append(result.Routes, rt)
	}

	return result, nil
}

// pendingDeliveries pages through the pending deliveries of date in delivery number order.
func (h OptimizeRoutesCommandHandler) pendingDeliveries(
	ctx context.Context,
	repo ports.DeliveryRepository,
	date time.Time,
) ([]*delivery.Delivery, error) {
	var out []*delivery.Delivery
	filter := ports.PendingFilter{Date: date, Limit: h.cfg.PageSize}
	for {
		page, err := repo.ListPending(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < filter.Limit {
			return out, nil
		}
		filter.AfterNumber = page[len(page)-1].Number()
	}
}

func (h OptimizeRoutesCommandHandler) candidates(
	ctx context.Context,
	reader UoW,
	cmd OptimizeRoutesCommand,
) ([]services.Candidate, error) {
	var drivers []*driver.Driver
	if id := cmd.DriverID(); id != nil {
		d, err := reader.DriverRepository().Get(ctx, *id)
		if err != nil {
			return nil, err
		}
		if err = d.CanTakeRoute(); err != nil {
			return nil, err
		}
		drivers = []*driver.Driver{d}
	} else {
		var err error
		drivers, err = reader.DriverRepository().ListByStatus(ctx, driver.Available, driver.Busy)
		if err != nil {
			return nil, err
		}
	}

	routes, err := reader.RouteRepository().ListByDate(ctx, cmd.Date(), route.Planned, route.Active, route.Completed)
	if err != nil {
		return nil, err
	}

	return services.NewDriverEligibility(h.cfg.MultiRoutePerDay).Candidates(drivers, services.LoadsOf(routes), nil, 0), nil
}

// buildRoute orders the deliveries of one assignment and prices every leg.
func (h OptimizeRoutesCommandHandler) buildRoute(
	ctx context.Context,
	date time.Time,
	n int,
	a services.Assignment,
) (*route.Route, bool, error) {
	start := h.cfg.Depot
	if loc := a.Driver.Location(); loc != nil {
		start = *loc
	}

	points := make([]kernel.Location, 0, len(a.Deliveries)+1)
	points = append(points, start)
	keys := make([]string, 0, len(a.Deliveries))
	for _, d := range a.Deliveries {
		points = append(points, d.Location())
		keys = append(keys, d.Number())
	}

	matrix, fallbackUsed, err := h.costMatrix(ctx, points)
	if err != nil {
		return nil, fallbackUsed, err
	}

	order, err := services.NewStopSequencer(h.cfg.TwoOptEnabled).Sequence(matrix.Distances, keys)
	if err != nil {
		return nil, fallbackUsed, err
	}

	at := kernel.DateOf(date).Add(h.cfg.ShiftStart)
	prev := 0
	stops := make([]route.Stop, 0, len(order))
	for seq, idx := range order {
		d := a.Deliveries[idx]
		node := idx + 1
		if seq > 0 {
			at = at.Add(h.cfg.ServiceTime)
		}
		at = at.Add(time.Duration(matrix.Durations[prev][node]) * time.Second)

		stops = append(stops, route.Stop{
			DeliveryID:     d.ID(),
			Sequence:       seq,
			WeightKg:       d.WeightKg(),
			Location:       d.Location(),
			LegDistanceM:   matrix.Distances[prev][node],
			LegDurationS:   matrix.Durations[prev][node],
			PlannedArrival: at,
		})
		prev = node
	}

	name := fmt.Sprintf("%s %s #%d", kernel.FormatDate(date), a.Zone, n)
	rt, err := route.NewRoute(date, name, a.Driver.ID(), stops, h.cfg.ServiceTime, h.clock())
	return rt, fallbackUsed, err
}

// costMatrix asks the oracle within OracleTimeout and falls back to straight-line costs.
func (h OptimizeRoutesCommandHandler) costMatrix(ctx context.Context, points []kernel.Location) (ports.CostMatrix, bool, error) {
	octx := ctx
	if h.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		octx, cancel = context.WithTimeout(ctx, h.cfg.OracleTimeout)
		defer cancel()
	}

	m, err := h.oracle.CostMatrix(octx, points)
	if err == nil {
		err = checkMatrix(m, len(points))
	}
	if err == nil {
		return m, false, nil
	}
	if ctx.Err() != nil {
		return ports.CostMatrix{}, false, ctx.Err()
	}

	h.log.Warn("geo cost oracle unavailable, using straight-line costs",
		zap.Int("points", len(points)),
		zap.Error(errs.NewOracleTimeoutError("cost matrix", err)),
	)
	metrics.OracleFallback()

	m, err = h.fallback.CostMatrix(ctx, points)
	if err != nil {
		return ports.CostMatrix{}, true, err
	}
	return m, true, checkMatrix(m, len(points))
}

func checkMatrix(m ports.CostMatrix, n int) error {
	if len(m.Distances) != n || len(m.Durations) != n {
		return fmt.Errorf("cost matrix has %d/%d rows, want %d", len(m.Distances), len(m.Durations), n)
	}
	for i := range n {
		if len(m.Distances[i]) != n || len(m.Durations[i]) != n {
			return fmt.Errorf("cost matrix row %d is incomplete", i)
		}
	}
	return nil
}

// persistRoute stores the route and assigns its deliveries in one unit of work.
// A delivery that left the pending state since it was read aborts the route.
func (h OptimizeRoutesCommandHandler) persistRoute(ctx context.Context, rt *route.Route) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock()
	deliveries := uow.DeliveryRepository()

	for _, stop := range rt.Stops() {
		d, err := deliveries.Get(ctx, stop.DeliveryID)
		if err != nil {
			return err
		}
		if d.Status() != delivery.Pending {
			return errs.NewConcurrentModificationError("delivery", d.ID().String())
		}
		if err = d.Assign(rt.DriverID(), rt.ID(), stop.PlannedArrival, now); err != nil {
			return err
		}
		if err = deliveries.Update(ctx, d); err != nil {
			return err
		}
	}

	if err := uow.RouteRepository().Add(ctx, rt); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
