// Package scorer computes ranked substitute/succession candidates for a
// target role or employee. Pure computation: callers resolve the target and
// candidate pool, the scorer only weighs and sorts.
package scorer

import (
	"sort"
	"strings"
	"time"

	"github.com/shreyasbhat/talentlens/pkg/models"
)

// experienceCeiling caps the experience contribution at a 10-year tenure.
const experienceCeiling = 10.0

// performanceScale is the rating scale candidates are normalized over.
const performanceScale = 5.0

// scopeDepartmentCredit is the partial weight multiplier when a candidate
// matches only the explicitly requested scope department, not the target's.
const scopeDepartmentCredit = 0.6

// Params are the resolved inputs to a ranking run.
type Params struct {
	Target          *models.Employee // nil when no target employee was given
	TopK            int
	ScopeDepartment string
	Weights         models.SubstituteWeights
	RequiredSkills  []string
	Now             time.Time
}

// Rank scores every candidate in the pool against the params and returns the
// topK ranked results with per-factor breakdowns. The target employee must
// already be excluded from the pool by the caller; an empty pool returns an
// empty candidate list, not an error.
func Rank(params Params, pool []*models.Employee) models.SubstituteResult {
	if params.TopK <= 0 {
		params.TopK = models.DefaultTopK
	}
	if params.Now.IsZero() {
		params.Now = time.Now().UTC()
	}

	required := params.RequiredSkills
	if len(required) == 0 && params.Target != nil {
		required = params.Target.Skills
	}
	requiredSet := skillSet(required)

	candidates := make([]models.RankedCandidate, 0, len(pool))
	for _, cand := range pool {
		candidates = append(candidates, scoreCandidate(params, requiredSet, cand))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > params.TopK {
		candidates = candidates[:params.TopK]
	}

	var target *models.TargetContext
	if params.Target != nil {
		target = &models.TargetContext{
			EmployeeID:  params.Target.ID,
			Department:  params.Target.Department,
			Designation: params.Target.Designation,
		}
	}

	return models.SubstituteResult{
		Target:     target,
		Candidates: candidates,
		Meta: models.SubstituteResultMeta{
			ComputedAt:      params.Now,
			TotalCandidates: len(pool),
		},
	}
}

// scoreCandidate computes each factor independently and sums the weighted
// contributions.
func scoreCandidate(params Params, requiredSet map[string]bool, cand *models.Employee) models.RankedCandidate {
	w := params.Weights
	score := 0.0

	designationMatch := params.Target != nil &&
		equalFold(cand.Designation, params.Target.Designation)
	if designationMatch {
		score += w.Designation
	}

	departmentMatch := false
	switch {
	case params.Target != nil && equalFold(cand.Department, params.Target.Department):
		departmentMatch = true
		score += w.Department
	case params.ScopeDepartment != "" && equalFold(cand.Department, params.ScopeDepartment):
		departmentMatch = true
		score += w.Department * scopeDepartmentCredit
	}

	perf := cand.PerformanceRating / performanceScale
	if perf < 0 {
		perf = 0
	}
	if perf > 1 {
		perf = 1
	}
	score += perf * w.Performance

	// Overlap is set intersection: duplicate or differently-cased entries on
	// either side must not inflate or deflate the fraction.
	skillMatch := 0.0
	if len(requiredSet) > 0 {
		overlap := 0
		for s := range skillSet(cand.Skills) {
			if requiredSet[s] {
				overlap++
			}
		}
		skillMatch = float64(overlap) / float64(len(requiredSet))
	}
	score += skillMatch * w.Skills

	years := cand.YearsOfExperience(params.Now)
	expNorm := years / experienceCeiling
	if expNorm > 1 {
		expNorm = 1
	}
	score += expNorm * w.Experience

	return models.RankedCandidate{
		EmployeeRef:       cand.ID,
		Name:              cand.Name,
		Score:             score,
		DesignationMatch:  designationMatch,
		DepartmentMatch:   departmentMatch,
		PerformanceRating: cand.PerformanceRating,
		SkillMatch:        skillMatch,
		YearsExperience:   years,
	}
}

func skillSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		set[s] = true
	}
	return set
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
