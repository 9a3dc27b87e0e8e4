// Package clock provides per-game one-shot turn timers.
package clock

import (
	"sync"
	"time"
)

// TurnClock arms one timer per game. Re-arming or cancelling bumps the
// game's epoch, so a timer that fired concurrently with a cancel observes
// the stale epoch and does nothing. The turn number given to Arm is handed
// back to onExpire so the expiry handler can re-validate, under its own
// locks, that the turn it was armed for is still the one in progress.
type TurnClock struct {
	timeout  time.Duration
	onExpire func(gameID string, turn int)

	mu     sync.Mutex
	epochs map[string]uint64
	timers map[string]*time.Timer
}

// New builds a TurnClock. onExpire is invoked on the timer goroutine when a
// turn runs out; it must not call back into Arm or Cancel for the same game
// while holding locks that the caller's expiry path also takes.
func New(timeout time.Duration, onExpire func(gameID string, turn int)) *TurnClock {
	return &TurnClock{
		timeout:  timeout,
		onExpire: onExpire,
		epochs:   make(map[string]uint64),
		timers:   make(map[string]*time.Timer),
	}
}

// Arm starts the game's turn timer for the given turn number, replacing
// any previous one.
func (c *TurnClock) Arm(gameID string, turn int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[gameID]; ok {
		t.Stop()
	}
	c.epochs[gameID]++
	epoch := c.epochs[gameID]
	c.timers[gameID] = time.AfterFunc(c.timeout, func() {
		c.fire(gameID, epoch, turn)
	})
}

// Cancel stops the game's timer. A timer that already fired but has not
// yet run its callback is invalidated by the epoch bump.
func (c *TurnClock) Cancel(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[gameID]; ok {
		t.Stop()
		delete(c.timers, gameID)
	}
	c.epochs[gameID]++
}

// Forget drops all clock state for a finished game.
func (c *TurnClock) Forget(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[gameID]; ok {
		t.Stop()
		delete(c.timers, gameID)
	}
	delete(c.epochs, gameID)
}

func (c *TurnClock) fire(gameID string, epoch uint64, turn int) {
	c.mu.Lock()
	if c.epochs[gameID] != epoch {
		c.mu.Unlock()
		return
	}
	delete(c.timers, gameID)
	c.mu.Unlock()

	c.onExpire(gameID, turn)
}
