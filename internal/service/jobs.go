// Package service holds the application operations behind the HTTP layer:
// enqueueing analysis jobs, querying their state, and the synchronous
// low-volume analysis passthroughs.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shreyasbhat/talentlens/internal/cache"
	"github.com/shreyasbhat/talentlens/internal/engine"
	"github.com/shreyasbhat/talentlens/internal/store"
	"github.com/shreyasbhat/talentlens/internal/topics"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

var (
	ErrInvalidJobType = errors.New("invalid job type")
	ErrInvalidPayload = errors.New("invalid job payload")
)

const (
	projectionSnippetLen = 160
	jobStatusTTL         = 24 * time.Hour
)

// Jobs exposes the enqueue/query operations. The worker, not this service,
// performs the actual analysis; enqueue returns immediately with a pending job.
type Jobs struct {
	store     store.Store
	engine    *engine.Engine
	cache     cache.Cache
	maxTopics int
	logger    *slog.Logger
}

// NewJobs creates the job service. cache may be nil; the status mirror is a
// best-effort read optimization, never a source of truth.
func NewJobs(st store.Store, eng *engine.Engine, c cache.Cache, maxTopics int) *Jobs {
	return &Jobs{
		store:     st,
		engine:    eng,
		cache:     c,
		maxTopics: maxTopics,
		logger:    slog.Default().With("component", "jobs"),
	}
}

// EnqueueSentiment creates a pending sentiment job for the given target
// record. The target must exist at enqueue time; a record deleted between
// enqueue and processing fails the job later instead.
func (s *Jobs) EnqueueSentiment(ctx context.Context, jobType string, targetRef uuid.UUID) (*models.Job, error) {
	switch jobType {
	case models.JobTypeSentimentFeedback:
		if _, err := s.store.GetFeedback(ctx, targetRef); err != nil {
			return nil, fmt.Errorf("resolve feedback %s: %w", targetRef, err)
		}
	case models.JobTypeSentimentComplaint:
		if _, err := s.store.GetComplaint(ctx, targetRef); err != nil {
			return nil, fmt.Errorf("resolve complaint %s: %w", targetRef, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidJobType, jobType)
	}

	job := newJob(jobType)
	job.TargetRef = &targetRef

	if err := s.store.EnqueueJob(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	s.mirrorStatus(ctx, job)
	return job, nil
}

// EnqueueSubstitute creates a pending substitute-search job carrying the
// given payload. Scope and target are resolved at processing time against
// the then-current employee data.
func (s *Jobs) EnqueueSubstitute(ctx context.Context, payload models.SubstitutePayload) (*models.Job, error) {
	if payload.TopK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative", ErrInvalidPayload)
	}
	if w := payload.Weights; w != nil {
		if w.Designation < 0 || w.Department < 0 || w.Performance < 0 || w.Experience < 0 || w.Skills < 0 {
			return nil, fmt.Errorf("%w: weights must not be negative", ErrInvalidPayload)
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	job := newJob(models.JobTypeSubstitute)
	job.Payload = encoded

	if err := s.store.EnqueueJob(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	s.mirrorStatus(ctx, job)
	return job, nil
}

// JobDetail pairs a job with a safe projection of its target record. Target
// is nil for substitute jobs and for records deleted after enqueue.
type JobDetail struct {
	Job    *models.Job              `json:"job"`
	Target *models.TargetProjection `json:"target,omitempty"`
}

// GetJobDetail loads the job and, for sentiment jobs, a projection of the
// target record. Raw record bodies never leave this layer; only a truncated
// snippet and the analysis fields are exposed.
func (s *Jobs) GetJobDetail(ctx context.Context, id uuid.UUID) (*JobDetail, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	detail := &JobDetail{Job: job}
	if job.TargetRef == nil {
		return detail, nil
	}

	switch job.Type {
	case models.JobTypeSentimentFeedback:
		f, err := s.store.GetFeedback(ctx, *job.TargetRef)
		if errors.Is(err, store.ErrNotFound) {
			return detail, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get feedback %s: %w", job.TargetRef, err)
		}
		detail.Target = &models.TargetProjection{
			ID:             f.ID,
			Kind:           "feedback",
			Snippet:        snippet(f.Subject, f.Body),
			SentimentScore: f.SentimentScore,
			SentimentLabel: f.SentimentLabel,
			Topics:         f.Topics,
			AnalysisMeta:   f.AnalysisMeta,
			LastAnalyzedAt: f.LastAnalyzedAt,
		}
	case models.JobTypeSentimentComplaint:
		c, err := s.store.GetComplaint(ctx, *job.TargetRef)
		if errors.Is(err, store.ErrNotFound) {
			return detail, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get complaint %s: %w", job.TargetRef, err)
		}
		detail.Target = &models.TargetProjection{
			ID:             c.ID,
			Kind:           "complaint",
			Snippet:        snippet(c.Category, c.Description),
			SentimentScore: c.SentimentScore,
			SentimentLabel: c.SentimentLabel,
			Topics:         c.Topics,
			AnalysisMeta:   c.AnalysisMeta,
			LastAnalyzedAt: c.LastAnalyzedAt,
		}
	}
	return detail, nil
}

// GetJobStatus answers the lightweight polling question from the redis
// mirror when it still holds the answer. A mirror miss or error falls back
// to the store and repopulates the mirror.
func (s *Jobs) GetJobStatus(ctx context.Context, id uuid.UUID) (string, error) {
	if s.cache != nil {
		status, found, err := s.cache.GetJobStatus(ctx, id)
		if err != nil {
			s.logger.Warn("read job status mirror", "job_id", id, "error", err)
		} else if found {
			return status, nil
		}
	}

	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get job %s: %w", id, err)
	}
	s.mirrorStatus(ctx, job)
	return job.Status, nil
}

// AnalyzeSentiment runs the engine synchronously. Intended for low-volume
// interactive use; bulk analysis goes through the job queue.
func (s *Jobs) AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	return s.engine.AnalyzeSentiment(ctx, text)
}

// ExtractTopics runs keyphrase extraction synchronously.
func (s *Jobs) ExtractTopics(text string, maxTopics int) []models.Topic {
	if maxTopics <= 0 {
		maxTopics = s.maxTopics
	}
	return topics.Extract(text, maxTopics)
}

func newJob(jobType string) *models.Job {
	now := time.Now().UTC()
	return &models.Job{
		ID:          uuid.New(),
		Type:        jobType,
		Status:      models.JobStatusPending,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *Jobs) mirrorStatus(ctx context.Context, job *models.Job) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJobStatus(ctx, job.ID, job.Status, jobStatusTTL); err != nil {
		s.logger.Warn("mirror job status", "job_id", job.ID, "error", err)
	}
}

func snippet(head, body string) string {
	head = strings.TrimSpace(head)
	body = strings.TrimSpace(body)
	text := body
	if head != "" && body != "" {
		text = head + ": " + body
	} else if body == "" {
		text = head
	}
	if len(text) <= projectionSnippetLen {
		return text
	}
	cut := projectionSnippetLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
