// Package worker runs the polling job loop: claim a batch of pending
// analysis jobs, process them with bounded concurrency, write results back,
// and emit progress events. Multiple worker instances may share one job
// store; the store's conditional claim is the only coordination mechanism.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shreyasbhat/talentlens/internal/cache"
	"github.com/shreyasbhat/talentlens/internal/config"
	"github.com/shreyasbhat/talentlens/internal/engine"
	"github.com/shreyasbhat/talentlens/internal/scorer"
	"github.com/shreyasbhat/talentlens/internal/store"
	"github.com/shreyasbhat/talentlens/internal/topics"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

const snippetLen = 80

// jobStatusTTL bounds how long a mirrored status outlives its last refresh.
const jobStatusTTL = 24 * time.Hour

// Worker is the long-running job processor.
type Worker struct {
	store   store.Store
	engine  *engine.Engine
	cfg     config.WorkerConfig
	cache   cache.Cache
	hooks   []Hook
	emitter Emitter
	logger  *slog.Logger
}

// New creates a Worker. c may be nil when no status mirror is wired; emitter
// may be nil when no observers are wired.
func New(st store.Store, eng *engine.Engine, cfg config.WorkerConfig, c cache.Cache, emitter Emitter, hooks ...Hook) *Worker {
	return &Worker{
		store:   st,
		engine:  eng,
		cfg:     cfg,
		cache:   c,
		hooks:   hooks,
		emitter: emitter,
		logger:  slog.Default().With("component", "worker"),
	}
}

// Run polls the job store until ctx is cancelled. Store errors pause the
// loop briefly and never crash it.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started",
		"batch_size", w.cfg.BatchSize,
		"concurrency", w.cfg.Concurrency,
		"poll_interval", w.cfg.PollInterval.String(),
	)

	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped")
			return
		}

		pending, err := w.store.CountPendingJobs(ctx)
		if err != nil {
			w.logger.Error("count pending jobs", "error", err)
			w.sleep(ctx, w.cfg.ErrorBackoff)
			continue
		}
		if pending == 0 {
			w.sleep(ctx, w.cfg.PollInterval)
			continue
		}

		batch, err := w.store.ClaimJobBatch(ctx, w.cfg.BatchSize, time.Now().UTC())
		if err != nil {
			w.logger.Error("claim job batch", "error", err)
			w.sleep(ctx, w.cfg.ErrorBackoff)
			continue
		}
		if len(batch) == 0 {
			// Another instance won the race for every candidate row.
			w.sleep(ctx, w.cfg.PollInterval)
			continue
		}

		w.ProcessBatch(ctx, batch)
	}
}

// ProcessBatch runs the claimed jobs in fixed-size concurrency windows of
// cfg.Concurrency, waiting for each window before starting the next. One
// job's failure never aborts its siblings or the batch.
func (w *Worker) ProcessBatch(ctx context.Context, batch []*models.Job) {
	var succeeded, failed int
	var mu sync.Mutex

	for start := 0; start < len(batch); start += w.cfg.Concurrency {
		end := start + w.cfg.Concurrency
		if end > len(batch) {
			end = len(batch)
		}

		var wg sync.WaitGroup
		for _, job := range batch[start:end] {
			wg.Add(1)
			go func(job *models.Job) {
				defer wg.Done()
				ok := w.processJob(ctx, job)
				mu.Lock()
				if ok {
					succeeded++
				} else {
					failed++
				}
				mu.Unlock()
			}(job)
		}
		wg.Wait()
	}

	pending, err := w.store.CountPendingJobs(ctx)
	if err != nil {
		w.logger.Error("count pending jobs for batch event", "error", err)
		pending = -1
	}

	w.emitBatch(ctx, models.BatchEvent{
		Event:     models.EventBatchCompleted,
		Timestamp: time.Now().UTC(),
		Processed: len(batch),
		Succeeded: succeeded,
		Failed:    failed,
		Pending:   pending,
	})
}

// processJob dispatches one claimed job and writes its terminal state.
// Returns true on success.
func (w *Worker) processJob(ctx context.Context, job *models.Job) (ok bool) {
	start := time.Now()
	var snippet string

	w.mirrorStatus(ctx, job.ID, models.JobStatusProcessing)

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic in job handler", "job_id", job.ID, "panic", r)
			w.failJob(ctx, job, fmt.Sprintf("panic: %v", r))
			w.emitJob(ctx, job, start, snippet, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	var result json.RawMessage
	var err error

	switch job.Type {
	case models.JobTypeSentimentFeedback, models.JobTypeSentimentComplaint:
		snippet, err = w.handleSentiment(ctx, job)
	case models.JobTypeSubstitute:
		result, err = w.handleSubstitute(ctx, job)
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
	}

	if err != nil {
		w.failJob(ctx, job, err.Error())
		w.emitJob(ctx, job, start, snippet, err)
		return false
	}

	for _, h := range w.hooks {
		if hookErr := h.JobSucceeded(ctx, job); hookErr != nil {
			w.logger.Warn("post-completion hook failed", "job_id", job.ID, "error", hookErr)
		}
	}

	if err := w.store.MarkJobDone(ctx, job.ID, result); err != nil {
		w.logger.Error("mark job done", "job_id", job.ID, "error", err)
		w.emitJob(ctx, job, start, snippet, err)
		return false
	}
	w.mirrorStatus(ctx, job.ID, models.JobStatusDone)

	w.emitJob(ctx, job, start, snippet, nil)
	return true
}

// handleSentiment loads the target record, analyzes its text, and writes the
// analysis fields back onto the record.
func (w *Worker) handleSentiment(ctx context.Context, job *models.Job) (string, error) {
	if job.TargetRef == nil {
		return "", fmt.Errorf("sentiment job has no target reference")
	}

	var text string
	switch job.Type {
	case models.JobTypeSentimentFeedback:
		f, err := w.store.GetFeedback(ctx, *job.TargetRef)
		if err != nil {
			return "", fmt.Errorf("load feedback %s: %w", job.TargetRef, err)
		}
		text = joinText(f.Subject, f.Body)
	case models.JobTypeSentimentComplaint:
		c, err := w.store.GetComplaint(ctx, *job.TargetRef)
		if err != nil {
			return "", fmt.Errorf("load complaint %s: %w", job.TargetRef, err)
		}
		text = joinText(c.Category, c.Description)
	}

	snippet := truncateString(text, snippetLen)

	sentiment, err := w.engine.AnalyzeSentiment(ctx, text)
	if err != nil {
		return snippet, fmt.Errorf("analyze sentiment: %w", err)
	}
	extracted := topics.Extract(text, w.cfg.MaxTopics)

	upd := models.AnalysisUpdate{
		SentimentScore: sentiment.Score,
		SentimentLabel: sentiment.Label,
		Topics:         topics.Tags(extracted),
		AnalysisMeta:   w.engine.ModelName(),
		LastAnalyzedAt: time.Now().UTC(),
	}

	switch job.Type {
	case models.JobTypeSentimentFeedback:
		err = w.store.UpdateFeedbackAnalysis(ctx, *job.TargetRef, upd)
	case models.JobTypeSentimentComplaint:
		err = w.store.UpdateComplaintAnalysis(ctx, *job.TargetRef, upd)
	}
	if err != nil {
		return snippet, fmt.Errorf("persist analysis: %w", err)
	}
	return snippet, nil
}

// handleSubstitute resolves the candidate pool and runs the scorer. The
// ranked result lives on the job itself; no target record is mutated.
func (w *Worker) handleSubstitute(ctx context.Context, job *models.Job) (json.RawMessage, error) {
	var payload models.SubstitutePayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode substitute payload: %w", err)
		}
	}

	var target *models.Employee
	if payload.TargetEmployeeID != nil {
		t, err := w.store.GetEmployee(ctx, *payload.TargetEmployeeID)
		switch {
		case err == nil:
			target = t
		case errors.Is(err, store.ErrNotFound):
			// Missing target is tolerated: score department/designation-blind.
		default:
			return nil, fmt.Errorf("resolve target employee: %w", err)
		}
	}

	pool, err := w.store.ListActiveEmployees(ctx, payload.Scope.Department)
	if err != nil {
		return nil, fmt.Errorf("list candidate pool: %w", err)
	}

	// Exclude the target from its own succession list.
	if target != nil {
		filtered := pool[:0]
		for _, e := range pool {
			if e.ID != target.ID {
				filtered = append(filtered, e)
			}
		}
		pool = filtered
	}

	weights := models.DefaultSubstituteWeights()
	if payload.Weights != nil {
		weights = *payload.Weights
	}

	result := scorer.Rank(scorer.Params{
		Target:          target,
		TopK:            payload.TopK,
		ScopeDepartment: payload.Scope.Department,
		Weights:         weights,
		RequiredSkills:  payload.RequiredSkills,
		Now:             time.Now().UTC(),
	}, pool)

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode substitute result: %w", err)
	}
	return encoded, nil
}

func (w *Worker) failJob(ctx context.Context, job *models.Job, msg string) {
	if err := w.store.MarkJobFailed(ctx, job.ID, msg); err != nil {
		w.logger.Error("mark job failed", "job_id", job.ID, "error", err)
		return
	}
	w.mirrorStatus(ctx, job.ID, models.JobStatusFailed)
}

// mirrorStatus refreshes the redis status mirror alongside a store
// transition. Best effort: mirror failures never affect job state.
func (w *Worker) mirrorStatus(ctx context.Context, jobID uuid.UUID, status string) {
	if w.cache == nil {
		return
	}
	if err := w.cache.SetJobStatus(ctx, jobID, status, jobStatusTTL); err != nil {
		w.logger.Warn("mirror job status", "job_id", jobID, "error", err)
	}
}

func (w *Worker) emitJob(ctx context.Context, job *models.Job, start time.Time, snippet string, jobErr error) {
	if w.emitter == nil {
		return
	}
	ev := models.JobEvent{
		Event:     models.EventJobCompleted,
		Timestamp: time.Now().UTC(),
		JobID:     job.ID,
		JobType:   job.Type,
		TargetRef: job.TargetRef,
		OK:        jobErr == nil,
		ElapsedMS: time.Since(start).Milliseconds(),
		Snippet:   snippet,
	}
	if jobErr != nil {
		ev.Error = jobErr.Error()
	}
	if err := w.emitter.EmitJob(ctx, ev); err != nil {
		w.logger.Warn("emit job event", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) emitBatch(ctx context.Context, ev models.BatchEvent) {
	if w.emitter == nil {
		return
	}
	if err := w.emitter.EmitBatch(ctx, ev); err != nil {
		w.logger.Warn("emit batch event", "error", err)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func joinText(head, body string) string {
	head = strings.TrimSpace(head)
	body = strings.TrimSpace(body)
	if head == "" {
		return body
	}
	if body == "" {
		return head
	}
	return head + "\n\n" + body
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
