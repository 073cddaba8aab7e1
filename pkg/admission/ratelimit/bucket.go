package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"glossa-hq/rosetta/pkg/clock"
)

// Bucket implements the token bucket rate limiting algorithm.
//
// The bucket allows bursts up to its capacity while converging to the
// sustained refill rate over time. Tokens are fractional: the wait-time
// math divides a token deficit by the refill rate, and integer tokens
// would round those estimates badly at low rates.
//
// State is ephemeral. A process restart resets the bucket to full, which
// is acceptable because the bucket only smooths call pacing; it does not
// enforce the daily quota.
//
// # Algorithm
//
//  1. On every public operation, credit tokens for the elapsed time
//     since the last refill, capped at capacity
//  2. Check whether enough tokens are available for the request
//  3. If yes: consume and return immediately
//  4. If no: Consume waits out the deficit, CanConsume reports false
type Bucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	clk        clock.Clock
	mu         sync.Mutex
}

// NewBucket creates a token bucket with the given burst capacity and
// refill rate in tokens per second. The bucket starts full.
//
// Panics if capacity or refillRate is not positive; these are build-time
// constants and a bad value is a programmer error.
func NewBucket(capacity, refillRate float64, clk clock.Clock) *Bucket {
	if capacity <= 0 {
		panic(fmt.Sprintf("ratelimit: capacity must be positive, got %v", capacity))
	}
	if refillRate <= 0 {
		panic(fmt.Sprintf("ratelimit: refill rate must be positive, got %v", refillRate))
	}
	if clk == nil {
		clk = clock.System()
	}

	return &Bucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     capacity,
		lastRefill: clk.Now(),
		clk:        clk,
	}
}

// CanConsume reports whether n tokens are available right now.
// No tokens are consumed.
func (b *Bucket) CanConsume(n float64) bool {
	checkTokenCount(n)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	return b.tokens >= n
}

// WaitTime returns the minimum delay before n tokens will be available.
// Returns 0 if they are available now.
func (b *Bucket) WaitTime(n float64) time.Duration {
	checkTokenCount(n)

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.waitTimeLocked(n)
}

// Consume takes n tokens from the bucket, suspending the caller until
// enough tokens have accumulated. Returns immediately when the bucket
// already holds n tokens.
//
// The wait is cancellable through ctx; an abandoned wait consumes
// nothing and leaves the bucket consistent for the next call.
func (b *Bucket) Consume(ctx context.Context, n float64) error {
	checkTokenCount(n)
	if n > b.capacity {
		panic(fmt.Sprintf("ratelimit: cannot consume %v tokens from a bucket of capacity %v", n, b.capacity))
	}

	b.mu.Lock()
	wait := b.waitTimeLocked(n)
	if wait == 0 {
		b.tokens -= n
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	// Single consumer: nothing else drains the bucket during the wait,
	// so the deficit computed above still holds when the timer fires.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.clk.After(wait):
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	b.tokens -= n
	if b.tokens < 0 {
		// Floor against float rounding in the wait estimate.
		b.tokens = 0
	}
	return nil
}

// Available returns the current token count after crediting elapsed time.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	return b.tokens
}

// Capacity returns the burst ceiling.
func (b *Bucket) Capacity() float64 {
	return b.capacity
}

// Reset refills the bucket to capacity. Administrative and test use only.
func (b *Bucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = b.capacity
	b.lastRefill = b.clk.Now()
}

// refillLocked credits tokens for elapsed time. Idempotent when called
// twice at the same timestamp. Caller must hold the lock.
func (b *Bucket) refillLocked() {
	now := b.clk.Now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	b.tokens = math.Min(b.capacity, b.tokens+elapsed.Seconds()*b.refillRate)
	b.lastRefill = now
}

// waitTimeLocked refills, then returns the delay until n tokens are
// available. Caller must hold the lock.
func (b *Bucket) waitTimeLocked(n float64) time.Duration {
	b.refillLocked()

	if b.tokens >= n {
		return 0
	}

	deficit := n - b.tokens
	seconds := deficit / b.refillRate
	return time.Duration(math.Ceil(seconds * float64(time.Second)))
}

func checkTokenCount(n float64) {
	if n < 0 || math.IsNaN(n) {
		panic(fmt.Sprintf("ratelimit: token count must be non-negative, got %v", n))
	}
}
