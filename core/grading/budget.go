package grading

import (
	"github.com/trezcool/escola/core/class"
)

// Stage point budget rules. Totals are always recomputed from activities and grades.

// epsilon absorbs float rounding when summing fractional points.
const epsilon = 1e-9

// DistributedPoints returns the sum of MaxPoints of the activities of a class stage.
func DistributedPoints(activities []Activity, classID, stageID string) float64 {
	var sum float64
	for _, a := range activities {
		if a.ClassID == classID && a.StageID == stageID {
			sum += a.MaxPoints
		}
	}
	return sum
}

// CanAddActivity reports whether an activity worth newMaxPoints fits in the stage budget.
// It is checked when an activity is proposed; a budget lowered later is not re-checked.
func CanAddActivity(stage class.StageConfig, existingInStage []Activity, newMaxPoints float64) bool {
	var sum float64
	for _, a := range existingInStage {
		sum += a.MaxPoints
	}
	return sum+newMaxPoints <= float64(stage.MaxPoints)+epsilon
}

// StudentStageTotal sums the grades of a student over the activities of a stage.
// A missing grade counts as 0.
func StudentStageTotal(studentID, stageID string, activities []Activity, grades []Grade) float64 {
	inStage := make(map[string]struct{})
	for _, a := range activities {
		if a.StageID == stageID {
			inStage[a.ID] = struct{}{}
		}
	}
	var total float64
	for _, g := range grades {
		if g.StudentID != studentID {
			continue
		}
		if _, ok := inStage[g.ActivityID]; ok {
			total += g.Value
		}
	}
	return total
}

// StageSummary is the budget usage of a stage.
type StageSummary struct {
	StageID     string  `json:"stageId"`
	Name        string  `json:"name"`
	MaxPoints   int     `json:"maxPoints"`
	Distributed float64 `json:"distributed"`
	Remaining   float64 `json:"remaining"`
	// OverBudget is set when the stage budget was lowered below the points already distributed.
	OverBudget bool `json:"overBudget"`
}

// SummarizeStages returns the budget usage of every stage of c, in stage order.
func SummarizeStages(c class.ClassGroup, activities []Activity) []StageSummary {
	res := make([]StageSummary, 0, len(c.Stages))
	for _, s := range c.Stages {
		dist := DistributedPoints(activities, c.ID, s.ID)
		res = append(res, StageSummary{
			StageID:     s.ID,
			Name:        s.Name,
			MaxPoints:   s.MaxPoints,
			Distributed: dist,
			Remaining:   float64(s.MaxPoints) - dist,
			OverBudget:  dist > float64(s.MaxPoints)+epsilon,
		})
	}
	return res
}

func filterStage(activities []Activity, classID, stageID string, exclID string) []Activity {
	res := make([]Activity, 0)
	for _, a := range activities {
		if a.ClassID == classID && a.StageID == stageID && a.ID != exclID {
			res = append(res, a)
		}
	}
	return res
}
