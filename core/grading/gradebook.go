package grading

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/student"
)

type (
	// StageTotal is a student's total on a stage.
	StageTotal struct {
		StageID   string  `json:"stageId"`
		Name      string  `json:"name"`
		MaxPoints int     `json:"maxPoints"`
		Total     float64 `json:"total"`
	}

	// Gradebook is the grade matrix of a class, one sheet per stage.
	Gradebook struct {
		Class  class.ClassGroup `json:"class"`
		Stages []GradebookStage `json:"stages"`
	}

	GradebookStage struct {
		Summary    StageSummary   `json:"summary"`
		Activities []Activity     `json:"activities"`
		Rows       []GradebookRow `json:"rows"`
	}

	// GradebookRow holds a student's grades in activity order. A nil grade is missing.
	GradebookRow struct {
		Student student.Student `json:"student"`
		Grades  []*float64      `json:"grades"`
		Total   float64         `json:"total"`
	}
)

// Gradebook builds the grade matrix of the students actively enrolled in the class.
func (svc *Service) Gradebook(ctx context.Context, classID string) (Gradebook, error) {
	c, err := svc.classRepo.Get(ctx, classID)
	if err != nil {
		return Gradebook{}, err
	}
	acts, err := svc.repo.ListActivities(ctx, c.ID)
	if err != nil {
		return Gradebook{}, errors.Wrap(err, "listing activities")
	}
	grades, err := svc.gradesOf(ctx, acts)
	if err != nil {
		return Gradebook{}, err
	}
	students, err := svc.stuRepo.ListByClass(ctx, c.ID, true /* activeOnly */)
	if err != nil {
		return Gradebook{}, errors.Wrap(err, "listing students")
	}
	return BuildGradebook(c, acts, grades, students), nil
}

// BuildGradebook assembles a Gradebook from the authoritative collections.
func BuildGradebook(c class.ClassGroup, acts []Activity, grades []Grade, students []student.Student) Gradebook {
	type key struct{ activityID, studentID string }
	byKey := make(map[key]float64, len(grades))
	for _, g := range grades {
		byKey[key{g.ActivityID, g.StudentID}] = g.Value
	}

	summaries := SummarizeStages(c, acts)
	gb := Gradebook{Class: c, Stages: make([]GradebookStage, 0, len(c.Stages))}
	for i, s := range c.Stages {
		stageActs := filterStage(acts, c.ID, s.ID, "")
		gs := GradebookStage{
			Summary:    summaries[i],
			Activities: stageActs,
			Rows:       make([]GradebookRow, 0, len(students)),
		}
		for _, stu := range students {
			row := GradebookRow{Student: stu, Grades: make([]*float64, 0, len(stageActs))}
			for _, a := range stageActs {
				if v, ok := byKey[key{a.ID, stu.ID}]; ok {
					v := v
					row.Grades = append(row.Grades, &v)
				} else {
					row.Grades = append(row.Grades, nil)
				}
			}
			row.Total = StudentStageTotal(stu.ID, s.ID, stageActs, grades)
			gs.Rows = append(gs.Rows, row)
		}
		gb.Stages = append(gb.Stages, gs)
	}
	return gb
}
