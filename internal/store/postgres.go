package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Jobs ---

const jobColumns = `id, type, status, target_ref, attempts, last_error, payload, result, scheduled_at, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.TargetRef, &j.Attempts, &j.LastError,
		&j.Payload, &j.Result, &j.ScheduledAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) EnqueueJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, type, status, target_ref, attempts, payload, scheduled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.Type, job.Status, job.TargetRef, job.Attempts, job.Payload,
		job.ScheduledAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) CountPendingJobs(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE status = 'pending'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}
	return n, nil
}

// ClaimJobBatch selects up to limit eligible pending jobs in scheduled_at
// order, then transitions each one to processing with a conditional update
// that only succeeds while the row is still pending. A row claimed by a
// concurrent caller between the select and the update is silently skipped,
// so no job id can appear in two returned batches. The batch as a whole is
// not one transaction; mutual exclusion is per record.
func (s *PostgresStore) ClaimJobBatch(ctx context.Context, limit int, now time.Time) ([]*models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM jobs
		 WHERE status = 'pending' AND scheduled_at <= $1
		 ORDER BY scheduled_at ASC
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select claimable jobs: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan claimable job id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select claimable jobs: %w", err)
	}

	claimed := make([]*models.Job, 0, len(ids))
	for _, id := range ids {
		j, err := scanJob(s.pool.QueryRow(ctx,
			`UPDATE jobs
			 SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
			 WHERE id = $1 AND status = 'pending'
			 RETURNING `+jobColumns, id))
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race to another worker instance.
			continue
		}
		if err != nil {
			return claimed, fmt.Errorf("claim job %s: %w", id, err)
		}
		claimed = append(claimed, j)
	}
	return claimed, nil
}

func (s *PostgresStore) MarkJobDone(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = 'done', result = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`, id, result)
	if err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkJobFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = 'failed', last_error = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'processing'`, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Feedbacks ---

func (s *PostgresStore) GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var f models.Feedback
	err := s.pool.QueryRow(ctx,
		`SELECT id, employee_id, subject, body, sentiment_score, sentiment_label, topics, analysis_meta, last_analyzed_at, created_at, updated_at
		 FROM feedbacks WHERE id = $1`, id,
	).Scan(&f.ID, &f.EmployeeID, &f.Subject, &f.Body, &f.SentimentScore, &f.SentimentLabel,
		&f.Topics, &f.AnalysisMeta, &f.LastAnalyzedAt, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return &f, nil
}

func (s *PostgresStore) UpdateFeedbackAnalysis(ctx context.Context, id uuid.UUID, upd models.AnalysisUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE feedbacks
		 SET sentiment_score = $2, sentiment_label = $3, topics = $4,
		     analysis_meta = $5, last_analyzed_at = $6, updated_at = NOW()
		 WHERE id = $1`,
		id, upd.SentimentScore, upd.SentimentLabel, upd.Topics, upd.AnalysisMeta, upd.LastAnalyzedAt)
	if err != nil {
		return fmt.Errorf("update feedback analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Complaints ---

func (s *PostgresStore) GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var c models.Complaint
	err := s.pool.QueryRow(ctx,
		`SELECT id, employee_id, category, description, sentiment_score, sentiment_label, topics, analysis_meta, last_analyzed_at, created_at, updated_at
		 FROM complaints WHERE id = $1`, id,
	).Scan(&c.ID, &c.EmployeeID, &c.Category, &c.Description, &c.SentimentScore, &c.SentimentLabel,
		&c.Topics, &c.AnalysisMeta, &c.LastAnalyzedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateComplaintAnalysis(ctx context.Context, id uuid.UUID, upd models.AnalysisUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE complaints
		 SET sentiment_score = $2, sentiment_label = $3, topics = $4,
		     analysis_meta = $5, last_analyzed_at = $6, updated_at = NOW()
		 WHERE id = $1`,
		id, upd.SentimentScore, upd.SentimentLabel, upd.Topics, upd.AnalysisMeta, upd.LastAnalyzedAt)
	if err != nil {
		return fmt.Errorf("update complaint analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Employees ---

func (s *PostgresStore) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var e models.Employee
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, department, designation, skills, performance_rating, joined_at, active
		 FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Department, &e.Designation, &e.Skills,
		&e.PerformanceRating, &e.JoinedAt, &e.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListActiveEmployees(ctx context.Context, department string) ([]*models.Employee, error) {
	query := `SELECT id, name, department, designation, skills, performance_rating, joined_at, active
	          FROM employees WHERE active`
	args := []any{}
	if department != "" {
		query += ` AND department = $1`
		args = append(args, department)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Department, &e.Designation, &e.Skills,
			&e.PerformanceRating, &e.JoinedAt, &e.Active); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}
