package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/escola/core/class"
)

func TestCanAddActivity(t *testing.T) {
	stage := class.StageConfig{ID: "s1", Name: "1st stage", MaxPoints: 30}

	var accepted []Activity
	for i, pts := range []float64{10, 10, 10} {
		if assert.True(t, CanAddActivity(stage, accepted, pts), "activity %d", i) {
			accepted = append(accepted, Activity{ID: string(rune('a' + i)), ClassID: "c", StageID: "s1", MaxPoints: pts})
		}
	}
	assert.Equal(t, 30.0, DistributedPoints(accepted, "c", "s1"))
	assert.False(t, CanAddActivity(stage, accepted, 1))

	tests := []struct {
		name     string
		max      int
		existing []float64
		add      float64
		want     bool
	}{
		{name: "empty stage", max: 10, add: 10, want: true},
		{name: "zero budget", max: 0, add: 0.5, want: false},
		{name: "fractional fit", max: 1, existing: []float64{0.1, 0.2}, add: 0.7, want: true},
		{name: "fractional overflow", max: 1, existing: []float64{0.1, 0.2}, add: 0.71, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acts := make([]Activity, 0, len(tt.existing))
			for _, pts := range tt.existing {
				acts = append(acts, Activity{MaxPoints: pts})
			}
			got := CanAddActivity(class.StageConfig{MaxPoints: tt.max}, acts, tt.add)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStudentStageTotal(t *testing.T) {
	acts := []Activity{
		{ID: "a1", StageID: "s1", MaxPoints: 10},
		{ID: "a2", StageID: "s1", MaxPoints: 10},
		{ID: "a3", StageID: "s2", MaxPoints: 10},
	}
	grades := []Grade{
		{ActivityID: "a1", StudentID: "x", Value: 7},
		{ActivityID: "a3", StudentID: "x", Value: 9},
		{ActivityID: "a1", StudentID: "y", Value: 2},
	}

	assert.Equal(t, 7.0, StudentStageTotal("x", "s1", acts, grades)) // a2 ungraded counts as 0
	assert.Equal(t, 9.0, StudentStageTotal("x", "s2", acts, grades))
	assert.Equal(t, 2.0, StudentStageTotal("y", "s1", acts, grades))
	assert.Equal(t, 0.0, StudentStageTotal("z", "s1", acts, grades))
}

func TestSummarizeStages(t *testing.T) {
	c := class.ClassGroup{ID: "c", Stages: []class.StageConfig{
		{ID: "s1", Name: "1st", MaxPoints: 30},
		{ID: "s2", Name: "2nd", MaxPoints: 5},
	}}
	acts := []Activity{
		{ID: "a1", ClassID: "c", StageID: "s1", MaxPoints: 20},
		{ID: "a2", ClassID: "c", StageID: "s2", MaxPoints: 10},
		{ID: "a3", ClassID: "other", StageID: "s1", MaxPoints: 10},
	}

	got := SummarizeStages(c, acts)
	assert.Equal(t, []StageSummary{
		{StageID: "s1", Name: "1st", MaxPoints: 30, Distributed: 20, Remaining: 10},
		{StageID: "s2", Name: "2nd", MaxPoints: 5, Distributed: 10, Remaining: -5, OverBudget: true},
	}, got)
}
