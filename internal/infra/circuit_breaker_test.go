package infra_test

import (
	"errors"
	"testing"
	"time"

	"blendresto/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCB() *infra.CircuitBreaker {
	return infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      50 * time.Millisecond,
	})
}

var errSend = errors.New("smtp: connection refused")

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestCB()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errSend })
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.True(t, errors.Is(err, infra.ErrCircuitOpen), "open breaker fast-fails")
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newTestCB()

	_ = cb.Execute(func() error { return errSend })
	_ = cb.Execute(func() error { return errSend })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errSend })
	_ = cb.Execute(func() error { return errSend })

	assert.Equal(t, infra.CBClosed, cb.State(), "interleaved success keeps the breaker closed")
}

func TestCircuitBreakerHalfOpenProbeClosesAfterSuccesses(t *testing.T) {
	cb := newTestCB()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errSend })
	}
	require.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreakerFailedProbeReopens(t *testing.T) {
	cb := newTestCB()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errSend })
	}
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, infra.CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errSend })
	assert.Equal(t, infra.CBOpen, cb.State())
}
