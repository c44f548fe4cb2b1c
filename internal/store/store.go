package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// Job queue. EnqueueJob creates a pending job with attempts=0 and
	// scheduled_at=now (or the given future time). ClaimJobBatch transitions
	// up to limit eligible pending jobs to processing and returns only the
	// rows actually transitioned; it is safe to call from multiple worker
	// instances concurrently. MarkJobDone/MarkJobFailed are terminal writes.
	EnqueueJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	CountPendingJobs(ctx context.Context) (int, error)
	ClaimJobBatch(ctx context.Context, limit int, now time.Time) ([]*models.Job, error)
	MarkJobDone(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	MarkJobFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// Target records. Sentiment jobs read the text field and write the
	// analysis fields back, once per successful job.
	GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	UpdateFeedbackAnalysis(ctx context.Context, id uuid.UUID, upd models.AnalysisUpdate) error
	GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	UpdateComplaintAnalysis(ctx context.Context, id uuid.UUID, upd models.AnalysisUpdate) error

	// Candidate pool. Read-only contract for the substitute scorer.
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	ListActiveEmployees(ctx context.Context, department string) ([]*models.Employee, error)
}
