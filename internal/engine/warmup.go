package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shreyasbhat/talentlens/internal/config"
)

// WarmupProgress is a coarse progress report sent to a caller-supplied sink
// while the model pipeline downloads and initializes.
type WarmupProgress struct {
	Attempt  int
	Attempts int
	Elapsed  time.Duration
	Err      error // non-nil when the attempt failed and a retry follows
}

// Warmup forces pipeline initialization ahead of the first real job. The
// download is retried with exponential backoff and jitter on transient
// failure; the last error surfaces once attempts are exhausted. The sink may
// be nil.
func (e *Engine) Warmup(ctx context.Context, cfg config.EngineConfig, sink func(WarmupProgress)) error {
	report := sink
	if report == nil {
		report = func(WarmupProgress) {}
	}

	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= cfg.WarmupAttempts; attempt++ {
		err := e.ensureLoaded(ctx)
		if err == nil {
			report(WarmupProgress{Attempt: attempt, Attempts: cfg.WarmupAttempts, Elapsed: time.Since(start)})
			return nil
		}
		lastErr = err
		report(WarmupProgress{Attempt: attempt, Attempts: cfg.WarmupAttempts, Elapsed: time.Since(start), Err: err})

		if attempt == cfg.WarmupAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("warmup cancelled: %w", ctx.Err())
		case <-time.After(backoffDelay(cfg.WarmupBaseDelay, attempt)):
		}
	}

	return fmt.Errorf("model warmup failed after %d attempts: %w", cfg.WarmupAttempts, lastErr)
}

// backoffDelay computes baseDelay * 2^(attempt-1) with ±30% jitter.
func backoffDelay(baseDelay time.Duration, attempt int) time.Duration {
	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}
