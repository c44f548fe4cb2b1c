package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shreyasbhat/talentlens/internal/cache"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

// Hook runs after a job's handler succeeds, before the terminal write. Hook
// failures are logged and never affect job state.
type Hook interface {
	JobSucceeded(ctx context.Context, job *models.Job) error
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx context.Context, job *models.Job) error

func (f HookFunc) JobSucceeded(ctx context.Context, job *models.Job) error {
	return f(ctx, job)
}

// Emitter forwards progress events to observers. Emission failures are
// logged and never affect job state.
type Emitter interface {
	EmitJob(ctx context.Context, ev models.JobEvent) error
	EmitBatch(ctx context.Context, ev models.BatchEvent) error
}

// InsightsInvalidator drops the externally-owned aggregate insight documents
// whenever a job mutates underlying data. The worker triggers the
// invalidation but does not own or rebuild the aggregates.
type InsightsInvalidator struct {
	cache cache.Cache
}

func NewInsightsInvalidator(c cache.Cache) *InsightsInvalidator {
	return &InsightsInvalidator{cache: c}
}

func (i *InsightsInvalidator) JobSucceeded(ctx context.Context, _ *models.Job) error {
	if err := i.cache.Delete(ctx, cache.InsightsKeys()...); err != nil {
		return fmt.Errorf("invalidate insights cache: %w", err)
	}
	return nil
}

// RedisEmitter publishes events as JSON onto a pub/sub channel, to be
// forwarded verbatim to a live dashboard.
type RedisEmitter struct {
	cache   cache.Cache
	channel string
}

func NewRedisEmitter(c cache.Cache, channel string) *RedisEmitter {
	return &RedisEmitter{cache: c, channel: channel}
}

func (e *RedisEmitter) EmitJob(ctx context.Context, ev models.JobEvent) error {
	return e.publish(ctx, ev)
}

func (e *RedisEmitter) EmitBatch(ctx context.Context, ev models.BatchEvent) error {
	return e.publish(ctx, ev)
}

func (e *RedisEmitter) publish(ctx context.Context, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := e.cache.Publish(ctx, e.channel, payload); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// SlogEmitter mirrors progress events into the structured log.
type SlogEmitter struct {
	logger *slog.Logger
}

func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	return &SlogEmitter{logger: logger}
}

func (e *SlogEmitter) EmitJob(_ context.Context, ev models.JobEvent) error {
	e.logger.Info("job completed",
		"job_id", ev.JobID,
		"job_type", ev.JobType,
		"ok", ev.OK,
		"error", ev.Error,
		"elapsed_ms", ev.ElapsedMS,
	)
	return nil
}

func (e *SlogEmitter) EmitBatch(_ context.Context, ev models.BatchEvent) error {
	e.logger.Info("batch completed",
		"processed", ev.Processed,
		"succeeded", ev.Succeeded,
		"failed", ev.Failed,
		"pending", ev.Pending,
	)
	return nil
}

// MultiEmitter fans events out to several emitters; the first error wins but
// every emitter still runs.
type MultiEmitter struct {
	emitters []Emitter
}

func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (m *MultiEmitter) EmitJob(ctx context.Context, ev models.JobEvent) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitJob(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiEmitter) EmitBatch(ctx context.Context, ev models.BatchEvent) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitBatch(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
