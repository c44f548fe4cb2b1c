// Package models contains shared data models used across the talentlens codebase.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job starts pending, is claimed into processing by exactly
// one worker, and ends in done or failed. Terminal states never transition back.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
)

// Job types. Sentiment jobs read text off a target record and write analysis
// fields back onto it; substitute jobs carry their own payload and store the
// ranked result on the job itself.
const (
	JobTypeSentimentFeedback  = "sentiment-feedback"
	JobTypeSentimentComplaint = "sentiment-complaint"
	JobTypeSubstitute         = "substitute"
)

// ValidJobType reports whether t is a known job type.
func ValidJobType(t string) bool {
	switch t {
	case JobTypeSentimentFeedback, JobTypeSentimentComplaint, JobTypeSubstitute:
		return true
	}
	return false
}

// Job tracks a unit of deferred analysis work. The API returns a job id on
// enqueue; clients poll GET /api/v1/jobs/{job_id} until status is done or failed.
type Job struct {
	ID          uuid.UUID       `db:"id"            json:"id"`
	Type        string          `db:"type"          json:"type"`
	Status      string          `db:"status"        json:"status"`
	TargetRef   *uuid.UUID      `db:"target_ref"    json:"target_ref,omitempty"`
	Attempts    int             `db:"attempts"      json:"attempts"`
	LastError   *string         `db:"last_error"    json:"last_error,omitempty"`
	Payload     json.RawMessage `db:"payload"       json:"payload,omitempty"`
	Result      json.RawMessage `db:"result"        json:"result,omitempty"`
	ScheduledAt time.Time       `db:"scheduled_at"  json:"scheduled_at"`
	CreatedAt   time.Time       `db:"created_at"    json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"    json:"updated_at"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
