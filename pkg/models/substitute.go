package models

import (
	"time"

	"github.com/google/uuid"
)

// Default factor weights for substitute scoring. Overridable per job.
const (
	DefaultWeightDesignation = 1.0
	DefaultWeightDepartment  = 0.6
	DefaultWeightPerformance = 1.0
	DefaultWeightExperience  = 0.4
	DefaultWeightSkills      = 1.2
)

// DefaultTopK is the number of ranked candidates returned when the payload
// does not say otherwise.
const DefaultTopK = 5

// SubstituteWeights are the per-factor multipliers for candidate scoring.
type SubstituteWeights struct {
	Designation float64 `json:"designation"`
	Department  float64 `json:"department"`
	Performance float64 `json:"performance"`
	Experience  float64 `json:"experience"`
	Skills      float64 `json:"skills"`
}

// DefaultSubstituteWeights returns the standard weight vector.
func DefaultSubstituteWeights() SubstituteWeights {
	return SubstituteWeights{
		Designation: DefaultWeightDesignation,
		Department:  DefaultWeightDepartment,
		Performance: DefaultWeightPerformance,
		Experience:  DefaultWeightExperience,
		Skills:      DefaultWeightSkills,
	}
}

// SubstituteScope restricts the candidate pool.
type SubstituteScope struct {
	Department string `json:"department,omitempty"`
}

// SubstitutePayload is the typed payload of a substitute job.
type SubstitutePayload struct {
	TargetEmployeeID *uuid.UUID         `json:"target_employee_id,omitempty"`
	TopK             int                `json:"top_k,omitempty"`
	Scope            SubstituteScope    `json:"scope,omitempty"`
	Weights          *SubstituteWeights `json:"weights,omitempty"`
	RequiredSkills   []string           `json:"required_skills,omitempty"`
}

// TargetContext is the resolved department/role context of the target
// employee, nil when no target was given or it could not be resolved.
type TargetContext struct {
	EmployeeID  uuid.UUID `json:"employee_id"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
}

// RankedCandidate is one scored substitute with its per-factor breakdown.
type RankedCandidate struct {
	EmployeeRef       uuid.UUID `json:"employee_ref"`
	Name              string    `json:"name"`
	Score             float64   `json:"score"`
	DesignationMatch  bool      `json:"designation_match"`
	DepartmentMatch   bool      `json:"department_match"`
	PerformanceRating float64   `json:"performance_rating"`
	SkillMatch        float64   `json:"skill_match"`
	YearsExperience   float64   `json:"years_experience"`
}

// SubstituteResultMeta records how the ranking was computed.
type SubstituteResultMeta struct {
	ComputedAt      time.Time `json:"computed_at"`
	TotalCandidates int       `json:"total_candidates"`
}

// SubstituteResult is the typed result stored on a completed substitute job.
type SubstituteResult struct {
	Target     *TargetContext       `json:"target,omitempty"`
	Candidates []RankedCandidate    `json:"candidates"`
	Meta       SubstituteResultMeta `json:"meta"`
}
