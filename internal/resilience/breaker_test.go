package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Do(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return errBoom }), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	err := b.Do(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: time.Millisecond})

	assert.Error(t, b.Do(func() error { return errBoom }))
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// Successful probe closes the circuit.
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: time.Millisecond})

	assert.Error(t, b.Do(func() error { return errBoom }))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	assert.ErrorIs(t, b.Do(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("embed", Settings{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	assert.Error(t, b.Do(func() error { return errBoom }))
	assert.Equal(t, []string{"closed->open"}, transitions)
}
