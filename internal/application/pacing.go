package application

import (
	"context"
	"time"

	"github.com/bnema/deltahash-cli/internal/ports"
)

const (
	jitterRatio  = 0.3
	minSleep     = 100 * time.Millisecond
	microPauseLo = 200 * time.Millisecond
	microPauseHi = 2 * time.Second
)

// Pacer inserts the deliberate, jittered delays between calls of one account.
type Pacer struct {
	sleeper ports.Sleeper
	random  ports.Random
}

func NewPacer(sleeper ports.Sleeper, random ports.Random) Pacer {
	if sleeper == nil {
		sleeper = ports.SystemClock{}
	}
	if random == nil {
		random = ports.SystemRandom{}
	}
	return Pacer{sleeper: sleeper, random: random}
}

// Jittered moves d by up to 30% either way, never below 100ms.
func (p Pacer) Jittered(d time.Duration) time.Duration {
	spread := float64(d) * jitterRatio
	actual := time.Duration(float64(d) + p.random.Float64()*spread*2 - spread)
	if actual < minSleep {
		return minSleep
	}
	return actual
}

// Uniform picks a duration in [lo, hi).
func (p Pacer) Uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.random.Float64()*float64(hi-lo))
}

func (p Pacer) Sleep(ctx context.Context, d time.Duration) error {
	return p.sleeper.Sleep(ctx, p.Jittered(d))
}

func (p Pacer) Between(ctx context.Context, lo, hi time.Duration) error {
	return p.Sleep(ctx, p.Uniform(lo, hi))
}

// Exact sleeps for d without jitter.
func (p Pacer) Exact(ctx context.Context, d time.Duration) error {
	return p.sleeper.Sleep(ctx, d)
}

func (p Pacer) MicroPause(ctx context.Context) error {
	return p.Between(ctx, microPauseLo, microPauseHi)
}
