package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the read-only candidate-pool contract the substitute scorer
// depends on. Employee lifecycle (hiring, leave, payroll) is owned elsewhere;
// this subsystem never writes to it.
type Employee struct {
	ID                uuid.UUID `db:"id"                 json:"id"`
	Name              string    `db:"name"               json:"name"`
	Department        string    `db:"department"         json:"department"`
	Designation       string    `db:"designation"        json:"designation"`
	Skills            []string  `db:"skills"             json:"skills"`
	PerformanceRating float64   `db:"performance_rating" json:"performance_rating"`
	JoinedAt          time.Time `db:"joined_at"          json:"joined_at"`
	Active            bool      `db:"active"             json:"active"`
}

// YearsOfExperience returns whole-ish years since the join date as of now.
func (e *Employee) YearsOfExperience(now time.Time) float64 {
	if e.JoinedAt.IsZero() || e.JoinedAt.After(now) {
		return 0
	}
	return now.Sub(e.JoinedAt).Hours() / (24 * 365.25)
}
