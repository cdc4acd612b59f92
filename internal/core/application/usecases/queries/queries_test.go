package queries_test

import (
	"slices"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

type readerFactory struct {
	uows *memory.UnitOfWorkFactory
}

func (f readerFactory) Create() queries.Reader {
	return f.uows.Create()
}

type fixture struct {
	uow     ports.UnitOfWork
	readers queries.ReaderFactory
}

func newFixture() *fixture {
	uows := memory.NewUnitOfWorkFactory(memory.NewStore())
	return &fixture{uow: uows.Create(), readers: readerFactory{uows: uows}}
}

func (f *fixture) driver(t *testing.T, name string, capacityKg float64, zones ...kernel.Zone) *driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(driver.Profile{
		UserID:        kernel.NewUUID(),
		Name:          name,
		Phone:         "+49301234567",
		VehicleType:   driver.Car,
		VehiclePlate:  "B-" + name,
		MaxCapacityKg: capacityKg,
		Zones:         zones,
	}, now)
	require.NoError(t, err)
	require.NoError(t, f.uow.DriverRepository().Add(t.Context(), d))
	return d
}

func (f *fixture) delivery(t *testing.T, date time.Time, zone kernel.Zone, payment delivery.PaymentMethod, total int64) *delivery.Delivery {
	t.Helper()
	ref, err := delivery.NewOrderRef(kernel.NewUUID(), date, total, payment, 2)
	require.NoError(t, err)
	addr, err := delivery.NewAddress("5 Elm Rd", kernel.MustNewLocation(52.52, 13.40), zone)
	require.NoError(t, err)
	d, err := delivery.NewDelivery(ref, addr, delivery.Normal, now)
	require.NoError(t, err)
	require.NoError(t, f.uow.DeliveryRepository().Add(t.Context(), d))
	return d
}

// deliver stores d as delivered by drv, arriving at arrival against an estimate of eta.
func (f *fixture) deliver(t *testing.T, d *delivery.Delivery, drv *driver.Driver, eta, arrival time.Time, collected *int64) {
	t.Helper()
	require.NoError(t, d.Assign(drv.ID(), kernel.NewUUID(), eta, now))
	require.NoError(t, d.Settle(delivery.Delivered, "", collected, arrival))
	require.NoError(t, f.uow.DeliveryRepository().Update(t.Context(), d))
}

func (f *fixture) route(t *testing.T, drv *driver.Driver, deliveries ...*delivery.Delivery) *route.Route {
	t.Helper()
	stops := make([]route.Stop, 0, len(deliveries))
	for i, d := range deliveries {
		stops = append(stops, route.Stop{
			DeliveryID: d.ID(),
			Sequence:   i,
			Location:   d.Location(),
			WeightKg:   d.WeightKg(),
			Status:     route.StopPending,
		})
	}
	rt, err := route.NewRoute(day, "route", drv.ID(), stops, 0, now)
	require.NoError(t, err)
	require.NoError(t, f.uow.RouteRepository().Add(t.Context(), rt))
	return rt
}

func amount(v int64) *int64 {
	return &v
}

func TestNewPage(t *testing.T) {
	page, err := queries.NewPage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, ports.Page{Limit: queries.DefaultLimit}, page)

	_, err = queries.NewPage(queries.MaxLimit+1, 0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	_, err = queries.NewPage(10, -1)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestListUnassignedQueryHandler(t *testing.T) {
	f := newFixture()
	for range 5 {
		f.delivery(t, day, "A", delivery.Card, 1000)
	}
	f.delivery(t, day, "B", delivery.Card, 1000)
	f.delivery(t, day.AddDate(0, 0, 1), "A", delivery.Card, 1000)
	cancelled := f.delivery(t, day, "A", delivery.Card, 1000)
	require.NoError(t, cancelled.Cancel("duplicate", now))
	require.NoError(t, f.uow.DeliveryRepository().Update(t.Context(), cancelled))

	query, err := queries.NewListUnassignedQuery(day, "A")
	require.NoError(t, err)
	seq := queries.NewListUnassignedQueryHandler(f.readers, 2).Handle(t.Context(), query)

	collect := func() []string {
		var numbers []string
		for d, err := range seq {
			require.NoError(t, err)
			assert.Equal(t, delivery.Pending, d.Status())
			numbers = append(numbers, d.Number())
		}
		return numbers
	}

	t.Run("pages through every pending delivery in number order", func(t *testing.T) {
		numbers := collect()
		assert.Len(t, numbers, 5)
		assert.True(t, slices.IsSorted(numbers))
		assert.Len(t, slices.Compact(slices.Clone(numbers)), 5)
	})

	t.Run("restartable", func(t *testing.T) {
		assert.Equal(t, collect(), collect())
	})

	t.Run("stops when the consumer stops", func(t *testing.T) {
		seen := 0
		for range seq {
			seen++
			if seen == 3 {
				break
			}
		}
		assert.Equal(t, 3, seen)
	})

	t.Run("all zones", func(t *testing.T) {
		all, err := queries.NewListUnassignedQuery(day, "")
		require.NoError(t, err)
		n := 0
		for _, err := range queries.NewListUnassignedQueryHandler(f.readers, 0).Handle(t.Context(), all) {
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, 6, n)
	})

	t.Run("not constructed", func(t *testing.T) {
		for d, err := range queries.NewListUnassignedQueryHandler(f.readers, 0).Handle(t.Context(), queries.ListUnassignedQuery{}) {
			assert.Nil(t, d)
			require.ErrorIs(t, err, queries.ErrListUnassignedQueryIsNotConstructed)
		}
	})

	t.Run("date required", func(t *testing.T) {
		_, err := queries.NewListUnassignedQuery(time.Time{}, "")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestGetDeliveriesQueryHandler(t *testing.T) {
	f := newFixture()
	drv := f.driver(t, "Ada", 100, "A")
	mine := f.delivery(t, day, "A", delivery.Cash, 1500)
	f.deliver(t, mine, drv, now.Add(time.Hour), now.Add(30*time.Minute), amount(1500))
	f.delivery(t, day, "A", delivery.Card, 1000)
	f.delivery(t, day.AddDate(0, 0, 2), "A", delivery.Card, 1000)

	handler := queries.NewGetDeliveriesQueryHandler(f.readers)

	t.Run("by status", func(t *testing.T) {
		query, err := queries.NewGetDeliveriesQuery(queries.DeliveryCriteria{Statuses: []delivery.Status{delivery.Pending}}, 0, 0)
		require.NoError(t, err)

		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("by driver and date", func(t *testing.T) {
		id := drv.ID()
		query, err := queries.NewGetDeliveriesQuery(queries.DeliveryCriteria{DriverID: &id, DateFrom: &day, DateTo: &day}, 10, 0)
		require.NoError(t, err)

		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, mine.ID(), result.Items[0].ID())
	})

	t.Run("search by number", func(t *testing.T) {
		query, err := queries.NewGetDeliveriesQuery(queries.DeliveryCriteria{Search: mine.Number()[13:]}, 0, 0)
		require.NoError(t, err)

		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
	})

	t.Run("paging keeps the total", func(t *testing.T) {
		query, err := queries.NewGetDeliveriesQuery(queries.DeliveryCriteria{}, 1, 1)
		require.NoError(t, err)

		result, err := handler.Handle(t.Context(), query)

		require.NoError(t, err)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 3, result.Total)
	})

	t.Run("inverted date range", func(t *testing.T) {
		later := day.AddDate(0, 0, 1)
		_, err := queries.NewGetDeliveriesQuery(queries.DeliveryCriteria{DateFrom: &later, DateTo: &day}, 0, 0)
		require.True(t, errs.IsValidation(err))
	})
}

func TestGetDeliveryStatsQueryHandler(t *testing.T) {
	f := newFixture()
	drv := f.driver(t, "Ada", 100, "A")
	onTime := f.delivery(t, day, "A", delivery.Cash, 1500)
	f.deliver(t, onTime, drv, now.Add(time.Hour), now.Add(30*time.Minute), amount(1500))
	late := f.delivery(t, day, "A", delivery.Card, 900)
	f.deliver(t, late, drv, now.Add(time.Hour), now.Add(2*time.Hour), nil)
	f.delivery(t, day, "A", delivery.Card, 1000)

	query, err := queries.NewGetDeliveryStatsQuery(&day, &day, nil)
	require.NoError(t, err)

	stats, err := queries.NewGetDeliveryStatsQueryHandler(f.readers).Handle(t.Context(), query)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[delivery.Delivered])
	assert.Equal(t, 1, stats.ByStatus[delivery.Pending])
	assert.Equal(t, 0, stats.ByStatus[delivery.Failed])
	assert.Len(t, stats.ByStatus, len(delivery.AllStatuses()))
	assert.InDelta(t, 0.5, stats.OnTimeRate, 1e-9)
	assert.Equal(t, int64(1500), stats.CashCollected)
}

func TestGetDriversQueryHandler(t *testing.T) {
	f := newFixture()
	f.driver(t, "Bea", 100, "A")
	f.driver(t, "Ada", 100, "A", "B")
	off := f.driver(t, "Cy", 100, "B")
	off.Suspend(now)
	require.NoError(t, f.uow.DriverRepository().Update(t.Context(), off))

	handler := queries.NewGetDriversQueryHandler(f.readers)

	query, err := queries.NewGetDriversQuery(nil, "A", "", 0, 0)
	require.NoError(t, err)
	result, err := handler.Handle(t.Context(), query)
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	assert.Equal(t, "Ada", result.Items[0].Name())
	assert.Equal(t, "Bea", result.Items[1].Name())

	suspended := driver.Suspended
	query, err = queries.NewGetDriversQuery(&suspended, "", "", 0, 0)
	require.NoError(t, err)
	result, err = handler.Handle(t.Context(), query)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, off.ID(), result.Items[0].ID())
}

func TestListEligibleDriversQueryHandler(t *testing.T) {
	f := newFixture()
	big := f.driver(t, "Big", 500, "A")
	small := f.driver(t, "Small", 50, "A")
	f.driver(t, "Elsewhere", 500, "B")
	withRoute := f.driver(t, "Routed", 300, "A")
	f.route(t, withRoute, f.delivery(t, day, "A", delivery.Card, 1000))

	query, err := queries.NewListEligibleDriversQuery("A", 40, day)
	require.NoError(t, err)

	t.Run("one route per day", func(t *testing.T) {
		eligible, err := queries.NewListEligibleDriversQueryHandler(f.readers, false).Handle(t.Context(), query)

		require.NoError(t, err)
		require.Len(t, eligible, 2)
		assert.Equal(t, big.ID(), eligible[0].Driver.ID())
		assert.Equal(t, small.ID(), eligible[1].Driver.ID())
		assert.InDelta(t, 500.0, eligible[0].RemainingKg, 1e-9)
	})

	t.Run("multiple routes per day", func(t *testing.T) {
		eligible, err := queries.NewListEligibleDriversQueryHandler(f.readers, true).Handle(t.Context(), query)

		require.NoError(t, err)
		require.Len(t, eligible, 3)
		assert.Equal(t, withRoute.ID(), eligible[1].Driver.ID())
		assert.InDelta(t, 298.0, eligible[1].RemainingKg, 1e-9)
	})

	t.Run("capacity filter", func(t *testing.T) {
		heavy, err := queries.NewListEligibleDriversQuery("A", 60, day)
		require.NoError(t, err)

		eligible, err := queries.NewListEligibleDriversQueryHandler(f.readers, false).Handle(t.Context(), heavy)

		require.NoError(t, err)
		require.Len(t, eligible, 1)
		assert.Equal(t, big.ID(), eligible[0].Driver.ID())
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := queries.NewListEligibleDriversQuery("", -1, time.Time{})
		require.True(t, errs.IsValidation(err))
	})
}

func TestGetDriverDeliveriesQueryHandler(t *testing.T) {
	f := newFixture()
	drv := f.driver(t, "Ada", 100, "A")
	d := f.delivery(t, day, "A", delivery.Card, 1000)
	f.deliver(t, d, drv, now.Add(time.Hour), now, nil)
	f.delivery(t, day, "A", delivery.Card, 1000)
	handler := queries.NewGetDriverDeliveriesQueryHandler(f.readers)

	query, err := queries.NewGetDriverDeliveriesQuery(drv.ID(), nil, nil, nil, 0, 0)
	require.NoError(t, err)
	result, err := handler.Handle(t.Context(), query)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, d.ID(), result.Items[0].ID())

	unknown, err := queries.NewGetDriverDeliveriesQuery(kernel.NewUUID(), nil, nil, nil, 0, 0)
	require.NoError(t, err)
	_, err = handler.Handle(t.Context(), unknown)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestGetDriverStatsQueryHandler(t *testing.T) {
	f := newFixture()
	drv := f.driver(t, "Ada", 100, "A")
	drv.RecordOutcome(true, now)
	drv.RecordOutcome(false, now)
	require.NoError(t, f.uow.DriverRepository().Update(t.Context(), drv))

	d := f.delivery(t, day, "A", delivery.Cash, 2000)
	f.deliver(t, d, drv, now.Add(time.Hour), now, amount(1800))
	f.route(t, drv, f.delivery(t, day, "A", delivery.Card, 1000))
	cancelled := f.route(t, drv, f.delivery(t, day, "A", delivery.Card, 1000))
	_, err := cancelled.Cancel("weather", now)
	require.NoError(t, err)
	require.NoError(t, f.uow.RouteRepository().Update(t.Context(), cancelled))

	query, err := queries.NewGetDriverStatsQuery(drv.ID())
	require.NoError(t, err)

	stats, err := queries.NewGetDriverStatsQueryHandler(f.readers).Handle(t.Context(), query)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDeliveries)
	assert.Equal(t, 1, stats.SuccessfulDeliveries)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.Equal(t, 2, stats.TotalRoutes)
	assert.Equal(t, 1, stats.CancelledRoutes)
	assert.Equal(t, 0, stats.CompletedRoutes)
	assert.Equal(t, int64(1800), stats.CashCollected)
	assert.True(t, stats.Rating.Equal(drv.Rating()))
}

func TestGetRoutesQueryHandler(t *testing.T) {
	f := newFixture()
	ada := f.driver(t, "Ada", 100, "A")
	bea := f.driver(t, "Bea", 100, "A")
	rt := f.route(t, ada, f.delivery(t, day, "A", delivery.Card, 1000))
	f.route(t, bea, f.delivery(t, day, "A", delivery.Card, 1000))

	id := ada.ID()
	query, err := queries.NewGetRoutesQuery(&day, nil, &id, 0, 0)
	require.NoError(t, err)

	result, err := queries.NewGetRoutesQueryHandler(f.readers).Handle(t.Context(), query)

	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, rt.ID(), result.Items[0].ID())
	assert.Len(t, result.Items[0].Stops(), 1)
}

func TestGetDailySummaryQueryHandler(t *testing.T) {
	// expected 10000 for every driver; collected per driver decides the status
	cases := []struct {
		name      string
		collected int64
		close     bool
		override  bool
		want      cash.ReconciliationStatus
	}{
		{name: "within tolerance, open", collected: 9950, want: cash.Pending},
		{name: "within tolerance, closed", collected: 9950, close: true, want: cash.Reconciled},
		{name: "beyond tolerance", collected: 9500, want: cash.Discrepancy},
		{name: "beyond tolerance, override", collected: 9500, close: true, override: true, want: cash.Reconciled},
	}

	f := newFixture()
	drivers := make(map[kernel.UUID]cash.ReconciliationStatus, len(cases))
	for _, tc := range cases {
		drv := f.driver(t, tc.name, 100, "A")
		d := f.delivery(t, day, "A", delivery.Cash, 10000)
		f.deliver(t, d, drv, now.Add(time.Hour), now, nil)

		rec, err := cash.NewRecord(day, drv.ID(), nil, now)
		require.NoError(t, err)
		_, err = rec.Append(d.ID(), tc.collected, now)
		require.NoError(t, err)
		if tc.close {
			require.NoError(t, rec.Close(10000, 100, "", tc.override, now))
		}
		require.NoError(t, f.uow.CashRepository().Add(t.Context(), rec))
		drivers[drv.ID()] = tc.want
	}

	query, err := queries.NewGetDailySummaryQuery(day, nil)
	require.NoError(t, err)

	lines, err := queries.NewGetDailySummaryQueryHandler(f.readers, 100).Handle(t.Context(), query)

	require.NoError(t, err)
	require.Len(t, lines, len(cases))
	for _, l := range lines {
		assert.Equal(t, int64(10000), l.Summary.Expected)
		assert.Equal(t, drivers[l.Record.DriverID()], l.Summary.Status, l.Record.DriverID().String())
		assert.Equal(t, l.Summary.Collected-l.Summary.Expected, l.Summary.Discrepancy)
	}

	for id, want := range drivers {
		one, err := queries.NewGetDailySummaryQuery(day, &id)
		require.NoError(t, err)
		lines, err := queries.NewGetDailySummaryQueryHandler(f.readers, 100).Handle(t.Context(), one)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, want, lines[0].Summary.Status)
	}
}
