package ports

import (
	"context"
	"math/rand/v2"
	"time"
)

type Clock interface {
	Now() time.Time
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type Random interface {
	Float64() float64
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type SystemRandom struct{}

func (SystemRandom) Float64() float64 {
	return rand.Float64()
}
