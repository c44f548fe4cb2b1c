package models

import (
	"time"

	"github.com/google/uuid"
)

// Progress event names forwarded to the live-update channel.
const (
	EventJobCompleted   = "job.completed"
	EventBatchCompleted = "batch.completed"
)

// JobEvent is emitted once per completed job, success or failure.
type JobEvent struct {
	Event     string     `json:"event"`
	Timestamp time.Time  `json:"timestamp"`
	JobID     uuid.UUID  `json:"job_id"`
	JobType   string     `json:"job_type"`
	TargetRef *uuid.UUID `json:"target_ref,omitempty"`
	OK        bool       `json:"ok"`
	Error     string     `json:"error,omitempty"`
	ElapsedMS int64      `json:"elapsed_ms"`
	Snippet   string     `json:"snippet,omitempty"`
}

// BatchEvent is emitted once per completed claim batch.
type BatchEvent struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Pending   int       `json:"pending"`
}
