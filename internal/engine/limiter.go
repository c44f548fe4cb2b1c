package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// callLimiter enforces a minimum spacing between invocations of the model
// pipeline, regardless of how many jobs the worker dispatches concurrently.
type callLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

func newCallLimiter(minDelay time.Duration) *callLimiter {
	return &callLimiter{minDelay: minDelay}
}

// wait blocks until enough time has passed since the previous call.
// Returns an error if the context is cancelled while waiting.
func (l *callLimiter) wait(ctx context.Context) error {
	if l.minDelay <= 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()

	if l.lastCall.IsZero() || now.Sub(l.lastCall) >= l.minDelay {
		l.lastCall = now
		l.mu.Unlock()
		return nil
	}

	// Reserve the next slot before unlocking so concurrent waiters queue up
	// rather than all releasing at once.
	slot := l.lastCall.Add(l.minDelay)
	l.lastCall = slot
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("model rate limiter wait: %w", ctx.Err())
	case <-time.After(time.Until(slot)):
	}
	return nil
}
