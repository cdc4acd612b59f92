package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchErrors_Messages(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "validation",
			err:      errs.NewValidationError("order-1", "address is empty"),
			sentinel: errs.ErrValidation,
			message:  "validation failed: order-1: address is empty",
		},
		{
			name:     "invalid transition",
			err:      errs.NewInvalidTransitionError("delivery", "d-1", "pending", "delivered"),
			sentinel: errs.ErrInvalidTransition,
			message:  "invalid transition: delivery d-1 cannot move from pending to delivered",
		},
		{
			name:     "invalid state",
			err:      errs.NewInvalidStateError("driver", "drv-1", "suspended", "cannot be marked busy"),
			sentinel: errs.ErrInvalidState,
			message:  "invalid state: driver drv-1 is suspended: cannot be marked busy",
		},
		{
			name:     "concurrent modification",
			err:      errs.NewConcurrentModificationError("route", "r-1"),
			sentinel: errs.ErrConcurrentModification,
			message:  "concurrent modification: route r-1 was changed by another writer",
		},
		{
			name:     "driver unavailable",
			err:      errs.NewDriverUnavailableError("drv-2", "suspended"),
			sentinel: errs.ErrDriverUnavailable,
			message:  "driver unavailable: drv-2 is suspended",
		},
		{
			name:     "oracle timeout",
			err:      errs.NewOracleTimeoutError("drv-3", errors.New("deadline exceeded")),
			sentinel: errs.ErrOracleTimeout,
			message:  "geo cost oracle timeout: drv-3 (cause: deadline exceeded)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.message, tc.err.Error())
			require.ErrorIs(t, tc.err, tc.sentinel)
			require.ErrorIs(t, fmt.Errorf("wrapped: %w", tc.err), tc.sentinel)
		})
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, errs.IsValidation(errs.NewValidationError("x", "bad")))
	assert.True(t, errs.IsValidation(errs.NewValueIsRequiredError("address")))
	assert.True(t, errs.IsValidation(errs.NewValueIsInvalidError("priority")))
	assert.True(t, errs.IsValidation(errs.NewValueIsOutOfRangeError("lat", 91, -90, 90)))
	assert.True(t, errs.IsValidation(errors.Join(errs.NewValueIsRequiredError("a"), errors.New("other"))))

	assert.False(t, errs.IsValidation(errs.NewObjectNotFoundError("delivery", "1")))
	assert.False(t, errs.IsValidation(errs.NewConcurrentModificationError("delivery", "1")))
	assert.False(t, errs.IsValidation(nil))
}

func TestIsNotFoundAndConflict(t *testing.T) {
	assert.True(t, errs.IsNotFound(errs.NewObjectNotFoundError("route", "r")))
	assert.False(t, errs.IsNotFound(errs.NewValidationError("route", "r")))

	assert.True(t, errs.IsConcurrentModification(fmt.Errorf("persist: %w", errs.NewConcurrentModificationError("route", "r"))))
	assert.False(t, errs.IsConcurrentModification(errs.NewInvalidStateError("driver", "d", "busy", "x")))
}
