package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasbhat/talentlens/internal/cache"
	"github.com/shreyasbhat/talentlens/internal/config"
	"github.com/shreyasbhat/talentlens/internal/engine"
	"github.com/shreyasbhat/talentlens/internal/nlp/mock"
	"github.com/shreyasbhat/talentlens/internal/store"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

// fakeStore implements store.Store with just enough behavior for the service
// tests. Methods the service never calls panic so misuse is loud.
type fakeStore struct {
	jobs      map[uuid.UUID]*models.Job
	feedbacks map[uuid.UUID]*models.Feedback
	complaint map[uuid.UUID]*models.Complaint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:      make(map[uuid.UUID]*models.Job),
		feedbacks: make(map[uuid.UUID]*models.Feedback),
		complaint: make(map[uuid.UUID]*models.Complaint),
	}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) EnqueueJob(ctx context.Context, job *models.Job) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return job, nil
}

func (f *fakeStore) CountPendingJobs(ctx context.Context) (int, error) { return len(f.jobs), nil }

func (f *fakeStore) ClaimJobBatch(ctx context.Context, limit int, now time.Time) ([]*models.Job, error) {
	panic("not used by service")
}

func (f *fakeStore) MarkJobDone(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	panic("not used by service")
}

func (f *fakeStore) MarkJobFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	panic("not used by service")
}

func (f *fakeStore) GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	fb, ok := f.feedbacks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return fb, nil
}

func (f *fakeStore) UpdateFeedbackAnalysis(ctx context.Context, id uuid.UUID, upd models.AnalysisUpdate) error {
	panic("not used by service")
}

func (f *fakeStore) GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	c, ok := f.complaint[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) UpdateComplaintAnalysis(ctx context.Context, id uuid.UUID, upd models.AnalysisUpdate) error {
	panic("not used by service")
}

func (f *fakeStore) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	panic("not used by service")
}

func (f *fakeStore) ListActiveEmployees(ctx context.Context, department string) ([]*models.Employee, error) {
	panic("not used by service")
}

var _ store.Store = (*fakeStore)(nil)

// fakeCache holds the job status mirror in a map. Only the status methods
// carry behavior; the rest are no-ops.
type fakeCache struct {
	statuses map[uuid.UUID]string
	getErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{statuses: make(map[uuid.UUID]string)}
}

func (f *fakeCache) SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error {
	f.statuses[jobID] = status
	return nil
}

func (f *fakeCache) GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	status, ok := f.statuses[jobID]
	return status, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error { return nil }
func (f *fakeCache) Ping(ctx context.Context) error                   { return nil }

func (f *fakeCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeCache) Publish(ctx context.Context, channel string, payload []byte) error { return nil }

var _ cache.Cache = (*fakeCache)(nil)

func newTestService(fs *fakeStore) *Jobs {
	eng := engine.New(mock.NewModel(), config.EngineConfig{CacheSize: 10})
	return NewJobs(fs, eng, nil, 5)
}

func newTestServiceWithCache(fs *fakeStore, c cache.Cache) *Jobs {
	eng := engine.New(mock.NewModel(), config.EngineConfig{CacheSize: 10})
	return NewJobs(fs, eng, c, 5)
}

func TestEnqueueSentiment_Feedback(t *testing.T) {
	fs := newFakeStore()
	feedbackID := uuid.New()
	fs.feedbacks[feedbackID] = &models.Feedback{ID: feedbackID, Subject: "s", Body: "b"}

	svc := newTestService(fs)
	job, err := svc.EnqueueSentiment(context.Background(), models.JobTypeSentimentFeedback, feedbackID)
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, models.JobTypeSentimentFeedback, job.Type)
	require.NotNil(t, job.TargetRef)
	assert.Equal(t, feedbackID, *job.TargetRef)
	assert.Zero(t, job.Attempts)
	assert.False(t, job.ScheduledAt.After(time.Now().UTC()))

	stored, err := fs.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, stored.Status)
}

func TestEnqueueSentiment_RejectsUnknownType(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.EnqueueSentiment(context.Background(), "substitute", uuid.New())
	require.ErrorIs(t, err, ErrInvalidJobType)
}

func TestEnqueueSentiment_MissingTarget(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.EnqueueSentiment(context.Background(), models.JobTypeSentimentFeedback, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEnqueueSubstitute(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	targetID := uuid.New()
	job, err := svc.EnqueueSubstitute(context.Background(), models.SubstitutePayload{
		TargetEmployeeID: &targetID,
		TopK:             3,
		Scope:            models.SubstituteScope{Department: "Engineering"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.JobTypeSubstitute, job.Type)
	assert.Nil(t, job.TargetRef)

	var payload models.SubstitutePayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	require.NotNil(t, payload.TargetEmployeeID)
	assert.Equal(t, targetID, *payload.TargetEmployeeID)
	assert.Equal(t, 3, payload.TopK)
	assert.Equal(t, "Engineering", payload.Scope.Department)
}

func TestEnqueueSubstitute_RejectsBadPayload(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.EnqueueSubstitute(context.Background(), models.SubstitutePayload{TopK: -1})
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = svc.EnqueueSubstitute(context.Background(), models.SubstitutePayload{
		Weights: &models.SubstituteWeights{Skills: -1},
	})
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGetJobDetail_WithProjection(t *testing.T) {
	fs := newFakeStore()
	score := 0.95
	label := "positive"
	feedbackID := uuid.New()
	fs.feedbacks[feedbackID] = &models.Feedback{
		ID:             feedbackID,
		Subject:        "Review",
		Body:           strings.Repeat("very long feedback text ", 20),
		SentimentScore: &score,
		SentimentLabel: &label,
		Topics:         []string{"feedback text"},
	}

	svc := newTestService(fs)
	job, err := svc.EnqueueSentiment(context.Background(), models.JobTypeSentimentFeedback, feedbackID)
	require.NoError(t, err)

	detail, err := svc.GetJobDetail(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, detail.Job.ID)
	require.NotNil(t, detail.Target)
	assert.Equal(t, "feedback", detail.Target.Kind)
	assert.LessOrEqual(t, len(detail.Target.Snippet), projectionSnippetLen)
	assert.True(t, strings.HasPrefix(detail.Target.Snippet, "Review: "))
	require.NotNil(t, detail.Target.SentimentLabel)
	assert.Equal(t, "positive", *detail.Target.SentimentLabel)
}

func TestGetJobDetail_TargetDeletedAfterEnqueue(t *testing.T) {
	fs := newFakeStore()
	complaintID := uuid.New()
	fs.complaint[complaintID] = &models.Complaint{ID: complaintID, Category: "c", Description: "d"}

	svc := newTestService(fs)
	job, err := svc.EnqueueSentiment(context.Background(), models.JobTypeSentimentComplaint, complaintID)
	require.NoError(t, err)

	delete(fs.complaint, complaintID)

	detail, err := svc.GetJobDetail(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Target)
}

func TestGetJobDetail_UnknownJob(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.GetJobDetail(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetJobDetail_SubstituteHasNoTarget(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	job, err := svc.EnqueueSubstitute(context.Background(), models.SubstitutePayload{})
	require.NoError(t, err)

	detail, err := svc.GetJobDetail(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Target)
}

func TestGetJobStatus_ServedFromMirror(t *testing.T) {
	fc := newFakeCache()
	jobID := uuid.New()
	fc.statuses[jobID] = models.JobStatusProcessing

	// The store does not know this job; only the mirror can answer.
	svc := newTestServiceWithCache(newFakeStore(), fc)
	status, err := svc.GetJobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, status)
}

func TestGetJobStatus_MirrorMissFallsBackAndRepopulates(t *testing.T) {
	fs := newFakeStore()
	fc := newFakeCache()
	job := &models.Job{ID: uuid.New(), Type: models.JobTypeSubstitute, Status: models.JobStatusDone}
	fs.jobs[job.ID] = job

	svc := newTestServiceWithCache(fs, fc)
	status, err := svc.GetJobStatus(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDone, status)
	assert.Equal(t, models.JobStatusDone, fc.statuses[job.ID], "miss repopulates the mirror")
}

func TestGetJobStatus_MirrorErrorFallsBackToStore(t *testing.T) {
	fs := newFakeStore()
	fc := newFakeCache()
	fc.getErr = errors.New("redis down")
	job := &models.Job{ID: uuid.New(), Type: models.JobTypeSubstitute, Status: models.JobStatusPending}
	fs.jobs[job.ID] = job

	svc := newTestServiceWithCache(fs, fc)
	status, err := svc.GetJobStatus(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, status)
}

func TestGetJobStatus_UnknownJob(t *testing.T) {
	svc := newTestServiceWithCache(newFakeStore(), newFakeCache())
	_, err := svc.GetJobStatus(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEnqueueMirrorsPendingStatus(t *testing.T) {
	fs := newFakeStore()
	fc := newFakeCache()
	feedbackID := uuid.New()
	fs.feedbacks[feedbackID] = &models.Feedback{ID: feedbackID, Subject: "s", Body: "b"}

	svc := newTestServiceWithCache(fs, fc)
	job, err := svc.EnqueueSentiment(context.Background(), models.JobTypeSentimentFeedback, feedbackID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, fc.statuses[job.ID])
}

func TestAnalyzeSentimentPassthrough(t *testing.T) {
	svc := newTestService(newFakeStore())
	got, err := svc.AnalyzeSentiment(context.Background(), "excellent mentoring")
	require.NoError(t, err)
	assert.Equal(t, "positive", got.Label)
}

func TestExtractTopicsUsesConfiguredDefault(t *testing.T) {
	svc := newTestService(newFakeStore())
	text := "workload balance issues and workload balance complaints keep growing across shift planning"
	got := svc.ExtractTopics(text, 0)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 5)
}
