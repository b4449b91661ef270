package service

import (
	"sync"
	"time"
)

// Countdown is the client-side cooldown mirroring an upstream login
// throttle: an integer number of seconds, decremented once per second, with
// 0 meaning "not limited". The tick loop is cancellable; it is torn down
// when the owner discards it or when the countdown reaches zero, whichever
// comes first, so no orphaned tick mutates state after teardown.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	stop      chan struct{}
	onZero    func()
	interval  time.Duration
}

// NewCountdown creates an inactive countdown. onZero fires exactly once at
// the tick where the countdown reaches zero; it is used to clear the stale
// error surface tied to the limit. A nil onZero is allowed.
func NewCountdown(onZero func()) *Countdown {
	return &Countdown{onZero: onZero, interval: time.Second}
}

// NewCountdownWithInterval creates a countdown with a custom tick interval.
// Tests use short intervals; production uses the one-second default.
func NewCountdownWithInterval(onZero func(), interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{onZero: onZero, interval: interval}
}

// Start arms the countdown at the given number of seconds and begins
// ticking. Restarting an active countdown resets it to the new value.
func (c *Countdown) Start(seconds int) {
	if seconds <= 0 {
		return
	}

	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	c.remaining = seconds
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop)
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.tick(stop) {
				return
			}
		}
	}
}

// tick decrements once. It reports true when the loop should end, either
// because the countdown hit zero or because it was superseded by a restart.
func (c *Countdown) tick(stop chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop {
		// A restart or Stop happened between the ticker firing and the
		// lock being taken; this loop no longer owns the state.
		c.mu.Unlock()
		return true
	}
	if c.remaining > 0 {
		c.remaining--
	}
	done := c.remaining == 0
	if done {
		c.stop = nil
	}
	c.mu.Unlock()

	if done && c.onZero != nil {
		c.onZero()
	}
	return done
}

// Tick advances the countdown by one second without the timer. Tests drive
// simulated time through this; it is a no-op on an inactive countdown.
func (c *Countdown) Tick() {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()
	if stop == nil {
		return
	}
	c.tick(stop)
}

// Remaining returns the seconds left; 0 means not limited.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Active reports whether the countdown is non-zero.
func (c *Countdown) Active() bool {
	return c.Remaining() > 0
}

// Stop tears the countdown down without firing onZero. Safe to call on an
// inactive or already-stopped countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.remaining = 0
}
