package delivery_test

import (
	"regexp"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func newTestDelivery(t *testing.T, payment delivery.PaymentMethod) *delivery.Delivery {
	t.Helper()

	ref, err := delivery.NewOrderRef(kernel.NewUUID(), now, 10000, payment, 4.5)
	require.NoError(t, err)
	addr, err := delivery.NewAddress("12 Harbour St", kernel.MustNewLocation(52.52, 13.40), "A")
	require.NoError(t, err)
	d, err := delivery.NewDelivery(ref, addr, delivery.High, now)
	require.NoError(t, err)
	return d
}

func TestNewDelivery(t *testing.T) {
	d := newTestDelivery(t, delivery.Cash)

	assert.Equal(t, delivery.Pending, d.Status())
	assert.Equal(t, delivery.High, d.Priority())
	assert.Regexp(t, regexp.MustCompile(`^DLV-20240501-[0-9A-F]{8}$`), d.Number())
	assert.Nil(t, d.DriverID())
	assert.Nil(t, d.RouteID())
	assert.Equal(t, kernel.Zone("A"), d.Zone())
	assert.InDelta(t, 4.5, d.WeightKg(), 1e-9)
	assert.Zero(t, d.Version())
}

func TestNewDelivery_Validation(t *testing.T) {
	ref, err := delivery.NewOrderRef(kernel.NewUUID(), now, 500, delivery.Card, 1)
	require.NoError(t, err)

	_, err = delivery.NewDelivery(ref, delivery.Address{}, delivery.Normal, now)
	assert.ErrorIs(t, err, delivery.ErrAddressIsNotConstructed)

	_, err = delivery.NewAddress("   ", kernel.MustNewLocation(1, 1), "A")
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	addr, err := delivery.NewAddress("1 Main St", kernel.MustNewLocation(1, 1), "A")
	require.NoError(t, err)
	_, err = delivery.NewDelivery(ref, addr, delivery.Priority(7), now)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestNewOrderRef_Validation(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		payment delivery.PaymentMethod
		weight  float64
	}{
		{"negative_total", -1, delivery.Cash, 1},
		{"unknown_payment", 100, delivery.UnknownPayment, 1},
		{"zero_weight", 100, delivery.Cash, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := delivery.NewOrderRef(kernel.NewUUID(), now, tt.total, tt.payment, tt.weight)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
		})
	}
}

func TestStatus_TransitionTable(t *testing.T) {
	allowed := map[delivery.Status][]delivery.Status{
		delivery.Pending:   {delivery.Assigned, delivery.Cancelled},
		delivery.Assigned:  {delivery.Pending, delivery.PickedUp, delivery.Cancelled},
		delivery.PickedUp:  {delivery.InTransit, delivery.Cancelled},
		delivery.InTransit: {delivery.Delivered, delivery.Failed, delivery.Cancelled},
	}

	for _, from := range delivery.AllStatuses() {
		for _, to := range delivery.AllStatuses() {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_ParseAndString(t *testing.T) {
	for _, s := range delivery.AllStatuses() {
		parsed, err := delivery.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := delivery.ParseStatus("lost")
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Error(t, delivery.Unknown.Validate())
	assert.True(t, delivery.Failed.IsTerminal())
	assert.False(t, delivery.InTransit.IsTerminal())
}

func TestDelivery_HappyPath(t *testing.T) {
	d := newTestDelivery(t, delivery.Cash)
	driverID, routeID := kernel.NewUUID(), kernel.NewUUID()
	eta := now.Add(2 * time.Hour)
	cash := int64(10000)

	require.NoError(t, d.Assign(driverID, routeID, eta, now))
	assert.Equal(t, delivery.Assigned, d.Status())
	assert.True(t, d.IsOnRoute(routeID))
	assert.Equal(t, eta, *d.EstimatedAt())

	require.NoError(t, d.PickUp(now))
	require.NoError(t, d.StartTransit(now))
	require.NoError(t, d.Deliver(&cash, now.Add(time.Hour)))

	assert.Equal(t, delivery.Delivered, d.Status())
	assert.Equal(t, int64(10000), *d.CashCollected())
	assert.Equal(t, now.Add(time.Hour), *d.DeliveredAt())
}

func TestDelivery_IllegalTransitionDoesNotMutate(t *testing.T) {
	d := newTestDelivery(t, delivery.Card)
	before := d.Snapshot()

	err := d.PickUp(now)
	require.Error(t, err)

	var transitionErr *errs.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, d.ID().String(), transitionErr.EntityID)
	assert.Equal(t, "pending", transitionErr.From)
	assert.Equal(t, "picked_up", transitionErr.To)
	assert.Equal(t, before, d.Snapshot())
}

func TestDelivery_ReleaseOnlyBeforePickup(t *testing.T) {
	d := newTestDelivery(t, delivery.Card)
	require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))

	require.NoError(t, d.Release(now))
	assert.Equal(t, delivery.Pending, d.Status())
	assert.Nil(t, d.DriverID())
	assert.Nil(t, d.RouteID())
	assert.Nil(t, d.EstimatedAt())

	require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))
	require.NoError(t, d.PickUp(now))
	assert.ErrorIs(t, d.Release(now), errs.ErrInvalidTransition)
}

func TestDelivery_TerminalStatesAreFinal(t *testing.T) {
	d := newTestDelivery(t, delivery.Card)
	require.NoError(t, d.Cancel("customer moved", now))
	assert.Equal(t, "customer moved", d.CancellationReason())

	assert.ErrorIs(t, d.Cancel("again", now), errs.ErrInvalidTransition)
	assert.ErrorIs(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now), errs.ErrInvalidTransition)
	assert.ErrorIs(t, d.Settle(delivery.Delivered, "", nil, now), errs.ErrInvalidTransition)
}

func TestDelivery_Settle(t *testing.T) {
	t.Run("walks_assigned_delivery_to_delivered", func(t *testing.T) {
		d := newTestDelivery(t, delivery.Cash)
		require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))
		cash := int64(9900)

		require.NoError(t, d.Settle(delivery.Delivered, "", &cash, now))

		assert.Equal(t, delivery.Delivered, d.Status())
		assert.Equal(t, int64(9900), *d.CashCollected())
	})

	t.Run("fails_in_transit_delivery_with_reason", func(t *testing.T) {
		d := newTestDelivery(t, delivery.Card)
		require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))
		require.NoError(t, d.PickUp(now))
		require.NoError(t, d.StartTransit(now))

		require.NoError(t, d.Settle(delivery.Failed, "nobody home", nil, now))

		assert.Equal(t, delivery.Failed, d.Status())
		assert.Equal(t, "nobody home", d.FailureReason())
	})

	t.Run("rolls_back_when_cash_is_rejected", func(t *testing.T) {
		d := newTestDelivery(t, delivery.Card)
		require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))
		before := d.Snapshot()
		cash := int64(100)

		err := d.Settle(delivery.Delivered, "", &cash, now)

		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.Equal(t, before, d.Snapshot())
	})

	t.Run("rejects_pending_delivery", func(t *testing.T) {
		d := newTestDelivery(t, delivery.Card)

		assert.ErrorIs(t, d.Settle(delivery.Failed, "", nil, now), errs.ErrInvalidTransition)
	})

	t.Run("rejects_non_terminal_outcome", func(t *testing.T) {
		d := newTestDelivery(t, delivery.Card)
		require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))

		assert.ErrorIs(t, d.Settle(delivery.InTransit, "", nil, now), errs.ErrInvalidTransition)
	})
}

func TestRestore(t *testing.T) {
	d := newTestDelivery(t, delivery.Cash)
	require.NoError(t, d.Assign(kernel.NewUUID(), kernel.NewUUID(), now, now))

	restored, err := delivery.Restore(d.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, d.Snapshot(), restored.Snapshot())

	broken := d.Snapshot()
	broken.RouteID = nil
	_, err = delivery.Restore(broken)
	assert.True(t, errs.IsValidation(err))

	pending := d.Snapshot()
	pending.Status = delivery.Pending
	_, err = delivery.Restore(pending)
	assert.True(t, errs.IsValidation(err))
}

func TestDelivery_ZeroValue(t *testing.T) {
	var d delivery.Delivery

	assert.ErrorIs(t, d.Validate(), delivery.ErrDeliveryIsNotConstructed)
	assert.ErrorIs(t, d.PickUp(now), delivery.ErrDeliveryIsNotConstructed)
}
