package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_ReachesZeroInExactTicks(t *testing.T) {
	var zeroFired int
	c := NewCountdown(func() { zeroFired++ })

	c.Start(60)
	require.Equal(t, 60, c.Remaining())

	for i := 0; i < 59; i++ {
		c.Tick()
	}
	assert.Equal(t, 1, c.Remaining())
	assert.Equal(t, 0, zeroFired, "error surface must clear exactly at the zero tick, not before")

	c.Tick()
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 1, zeroFired)
	assert.False(t, c.Active())
}

func TestCountdown_NeverGoesNegative(t *testing.T) {
	c := NewCountdown(nil)
	c.Start(2)
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdown_StopTearsDownWithoutFiringOnZero(t *testing.T) {
	var zeroFired int
	c := NewCountdown(func() { zeroFired++ })

	c.Start(30)
	c.Tick()
	require.Equal(t, 29, c.Remaining())

	c.Stop()
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 0, zeroFired)

	// Ticks after teardown must not mutate state.
	c.Tick()
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 0, zeroFired)
}

func TestCountdown_RestartResetsRemaining(t *testing.T) {
	c := NewCountdown(nil)
	c.Start(10)
	c.Tick()
	c.Tick()
	require.Equal(t, 8, c.Remaining())

	c.Start(60)
	assert.Equal(t, 60, c.Remaining())
}

func TestCountdown_StartZeroIsNoop(t *testing.T) {
	c := NewCountdown(nil)
	c.Start(0)
	assert.False(t, c.Active())
	c.Start(-5)
	assert.False(t, c.Active())
}

func TestCountdown_TimerDrivenTick(t *testing.T) {
	done := make(chan struct{})
	var once sync.Once
	c := NewCountdownWithInterval(func() { once.Do(func() { close(done) }) }, time.Millisecond)

	c.Start(3)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not reach zero under its own timer")
	}
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdown_ConcurrentTicksStayConsistent(t *testing.T) {
	c := NewCountdown(nil)
	c.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				c.Tick()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, c.Remaining())
}
