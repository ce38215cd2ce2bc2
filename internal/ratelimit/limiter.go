package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Jitter returns the interval to wait after a granted turn.
type Jitter func() time.Duration

// FixedJitter always returns d.
func FixedJitter(d time.Duration) Jitter {
	return func() time.Duration {
		return d
	}
}

// GaussianJitter draws intervals from a normal distribution with the given
// mean and standard deviation, never returning less than floor.
// The seed makes the sequence reproducible.
func GaussianJitter(mean, stddev, floor time.Duration, seed uint64) Jitter {
	rng := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // pacing, not security
	var mu sync.Mutex

	return func() time.Duration {
		mu.Lock()
		sample := rng.NormFloat64()
		mu.Unlock()

		d := mean + time.Duration(sample*float64(stddev))
		if d < floor {
			return floor
		}
		return d
	}
}

// minInterval is the shortest interval a Limiter schedules. The bucket's
// refill rate must stay finite so that changing it right after a turn does
// not credit the time between the grant and the change as a full token.
const minInterval = time.Millisecond

// Limiter grants turns no closer together than the jittered interval drawn
// after the previous turn.
type Limiter struct {
	// bucket holds a single token. Its refill interval is replaced after
	// every turn, which makes the next turn due at grant time + jitter.
	bucket *rate.Limiter

	// jitter draws the interval following each turn.
	jitter Jitter

	// mu serializes AwaitTurn so a turn and its interval update are atomic.
	mu sync.Mutex

	// turns counts granted turns.
	turns int

	// waited accumulates time spent blocked in AwaitTurn.
	waited time.Duration
}

// New creates a Limiter. The first turn is granted immediately.
func New(jitter Jitter) *Limiter {
	if jitter == nil {
		jitter = FixedJitter(0)
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Every(minInterval), 1),
		jitter: jitter,
	}
}

// AwaitTurn blocks until the next turn is due, then schedules the following
// one. It returns early with the context's error if ctx is done first.
func (l *Limiter) AwaitTurn(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}
	l.waited += time.Since(start)
	l.turns++

	l.bucket.SetLimit(rate.Every(max(l.jitter(), minInterval)))
	return nil
}

// Turns returns the number of granted turns.
func (l *Limiter) Turns() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.turns
}

// Waited returns the total time spent blocked in AwaitTurn.
func (l *Limiter) Waited() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waited
}
