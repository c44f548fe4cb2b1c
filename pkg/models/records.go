package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is an employee feedback record owned by the HR platform. The worker
// only ever touches its analysis fields, once per successful sentiment job.
type Feedback struct {
	ID             uuid.UUID  `db:"id"               json:"id"`
	EmployeeID     uuid.UUID  `db:"employee_id"      json:"employee_id"`
	Subject        string     `db:"subject"          json:"subject"`
	Body           string     `db:"body"             json:"body"`
	SentimentScore *float64   `db:"sentiment_score"  json:"sentiment_score,omitempty"`
	SentimentLabel *string    `db:"sentiment_label"  json:"sentiment_label,omitempty"`
	Topics         []string   `db:"topics"           json:"topics,omitempty"`
	AnalysisMeta   *string    `db:"analysis_meta"    json:"analysis_meta,omitempty"`
	LastAnalyzedAt *time.Time `db:"last_analyzed_at" json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"       json:"updated_at"`
}

// Complaint is an employee complaint record. Structurally a sibling of Feedback
// with its own text field; kept as a distinct type because the two are owned by
// different collaborator modules upstream.
type Complaint struct {
	ID             uuid.UUID  `db:"id"               json:"id"`
	EmployeeID     uuid.UUID  `db:"employee_id"      json:"employee_id"`
	Category       string     `db:"category"         json:"category"`
	Description    string     `db:"description"      json:"description"`
	SentimentScore *float64   `db:"sentiment_score"  json:"sentiment_score,omitempty"`
	SentimentLabel *string    `db:"sentiment_label"  json:"sentiment_label,omitempty"`
	Topics         []string   `db:"topics"           json:"topics,omitempty"`
	AnalysisMeta   *string    `db:"analysis_meta"    json:"analysis_meta,omitempty"`
	LastAnalyzedAt *time.Time `db:"last_analyzed_at" json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"       json:"updated_at"`
}

// AnalysisUpdate carries the fields a sentiment job writes onto a target record.
type AnalysisUpdate struct {
	SentimentScore float64
	SentimentLabel string
	Topics         []string
	AnalysisMeta   string
	LastAnalyzedAt time.Time
}

// TargetProjection is the safe subset of a target record exposed through the
// job query API. Text is truncated to a snippet upstream; raw bodies never
// leave the worker path.
type TargetProjection struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	Snippet        string     `json:"snippet"`
	SentimentScore *float64   `json:"sentiment_score,omitempty"`
	SentimentLabel *string    `json:"sentiment_label,omitempty"`
	Topics         []string   `json:"topics,omitempty"`
	AnalysisMeta   *string    `json:"analysis_meta,omitempty"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
}
