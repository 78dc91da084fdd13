package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/deltahash-cli/internal/ports"
)

var (
	_ ports.Clock   = (*FakeClock)(nil)
	_ ports.Sleeper = (*FakeClock)(nil)
	_ ports.Random  = FixedRandom(0)
)

// FakeClock advances its own time on Sleep instead of blocking and records
// every requested duration.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// FixedRandom always returns the same value from Float64.
type FixedRandom float64

func (r FixedRandom) Float64() float64 {
	return float64(r)
}
