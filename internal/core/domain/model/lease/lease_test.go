package lease_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/lease"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLease(t *testing.T) {
	now := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	date := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)

	l, err := lease.New(date, "run-1", time.Minute, now)
	require.NoError(t, err)

	assert.Equal(t, "optimize:2024-05-02", l.Key())
	assert.Equal(t, time.Minute, l.TTL())
	assert.False(t, l.IsExpired(now))
	assert.True(t, l.CanBeTakenBy("run-1", now))
	assert.False(t, l.CanBeTakenBy("run-2", now))
	assert.True(t, l.IsExpired(now.Add(time.Minute)))
	assert.True(t, l.CanBeTakenBy("run-2", now.Add(time.Minute)))
}

func TestLease_Validation(t *testing.T) {
	now := time.Now()

	_, err := lease.New(now, "", time.Minute, now)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = lease.New(now, "x", 0, now)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
