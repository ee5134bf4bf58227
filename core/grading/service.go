package grading

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/student"
)

var (
	// errors
	ErrActivityNotFound = core.NewNotFoundError("activity not found")
	ErrStageBudget      = errors.New("activity points exceed the remaining stage budget")
	ErrGradeOutOfRange  = errors.New("grade must be between 0 and the activity max points")
)

type (
	ActivityCheck func(c class.ClassGroup, classActs []Activity) error

	Repository interface {
		// AddActivity stores a once check accepts the class of a and its current activities.
		// The check and the write happen atomically.
		AddActivity(ctx context.Context, a Activity, check ActivityCheck) (Activity, error)
		// ModifyActivity applies fn to the stored activity and saves the result atomically.
		// classActs holds every activity of the class, the unmodified one included.
		ModifyActivity(ctx context.Context, id string, fn func(c class.ClassGroup, a *Activity, classActs []Activity) error) (Activity, error)
		GetActivity(ctx context.Context, id string) (Activity, error)
		// ListActivities returns the activities of classID, or every activity when classID is empty.
		ListActivities(ctx context.Context, classID string) ([]Activity, error)
		// DeleteActivity removes the activity with its grades.
		DeleteActivity(ctx context.Context, id string) error
		// SetGrade upserts g on (ActivityID, StudentID). Its range is not checked here.
		SetGrade(ctx context.Context, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, activityID, studentID string) error
		// ListGrades returns the grades of the given activities, or every grade when none is given.
		ListGrades(ctx context.Context, activityIDs ...string) ([]Grade, error)
	}

	Service struct {
		repo      Repository
		classRepo class.Repository
		stuRepo   student.Repository
		validate  *validator.Validate
	}
)

func NewService(repo Repository, classRepo class.Repository, stuRepo student.Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, classRepo: classRepo, stuRepo: stuRepo, validate: validate}
}

func budgetError(stage class.StageConfig, existing []Activity) error {
	remaining := float64(stage.MaxPoints)
	for _, a := range existing {
		remaining -= a.MaxPoints
	}
	return core.NewValidationError(ErrStageBudget, core.FieldError{
		Field: "maxPoints",
		Error: fmt.Sprintf("%s (stage %q: %g of %d points left)", ErrStageBudget, stage.Name, remaining, stage.MaxPoints),
	})
}

// AddActivity creates an activity if its points fit in the stage budget.
func (svc *Service) AddActivity(ctx context.Context, na NewActivity) (Activity, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Activity{}, err
	}
	a := Activity{
		ID:        core.NewID(),
		ClassID:   na.ClassID,
		Title:     na.Title,
		StageID:   na.StageID,
		MaxPoints: na.MaxPoints,
		Date:      na.Date,
	}
	return svc.repo.AddActivity(ctx, a, func(c class.ClassGroup, classActs []Activity) error {
		stage, ok := c.Stage(a.StageID)
		if !ok {
			return class.ErrStageNotFound
		}
		existing := filterStage(classActs, c.ID, stage.ID, "")
		if !CanAddActivity(stage, existing, a.MaxPoints) {
			return budgetError(stage, existing)
		}
		return nil
	})
}

// UpdateActivity modifies an activity. Raising its points is subject to the stage budget.
func (svc *Service) UpdateActivity(ctx context.Context, id string, ua UpdateActivity) (Activity, error) {
	if err := ua.Validate(svc.validate); err != nil {
		return Activity{}, err
	}
	return svc.repo.ModifyActivity(ctx, id, func(c class.ClassGroup, a *Activity, classActs []Activity) error {
		if ua.MaxPoints != nil && *ua.MaxPoints > a.MaxPoints {
			stage, ok := c.Stage(a.StageID)
			if !ok {
				return class.ErrStageNotFound
			}
			others := filterStage(classActs, c.ID, stage.ID, a.ID)
			if !CanAddActivity(stage, others, *ua.MaxPoints) {
				return budgetError(stage, others)
			}
		}

		if ua.Title != "" {
			a.Title = ua.Title
		}
		if ua.MaxPoints != nil {
			a.MaxPoints = *ua.MaxPoints
		}
		if ua.Date != nil {
			a.Date = *ua.Date
		}
		return nil
	})
}

func (svc *Service) GetActivity(ctx context.Context, id string) (Activity, error) {
	return svc.repo.GetActivity(ctx, id)
}

func (svc *Service) ListActivities(ctx context.Context, classID string) ([]Activity, error) {
	return svc.repo.ListActivities(ctx, classID)
}

func (svc *Service) DeleteActivity(ctx context.Context, id string) error {
	if _, err := svc.repo.GetActivity(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteActivity(ctx, id), "deleting activity")
}

// SetGrade records (or replaces) the grade of a student on an activity.
func (svc *Service) SetGrade(ctx context.Context, activityID string, sg SetGrade) (Grade, error) {
	if err := svc.validate.Struct(sg); err != nil {
		return Grade{}, err
	}
	a, err := svc.repo.GetActivity(ctx, activityID)
	if err != nil {
		return Grade{}, err
	}
	if err = student.CheckMember(ctx, svc.stuRepo, sg.StudentID, a.ClassID); err != nil {
		return Grade{}, err
	}
	if *sg.Value < 0 || *sg.Value > a.MaxPoints {
		return Grade{}, core.NewValidationError(ErrGradeOutOfRange, core.FieldError{
			Field: "value",
			Error: fmt.Sprintf("%s (%g)", ErrGradeOutOfRange, a.MaxPoints),
		})
	}
	return svc.repo.SetGrade(ctx, Grade{ActivityID: a.ID, StudentID: sg.StudentID, Value: *sg.Value})
}

func (svc *Service) DeleteGrade(ctx context.Context, activityID, studentID string) error {
	return svc.repo.DeleteGrade(ctx, activityID, studentID)
}

// ListGrades returns the grades of every activity of classID.
func (svc *Service) ListGrades(ctx context.Context, classID string) ([]Grade, error) {
	acts, err := svc.repo.ListActivities(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "listing activities")
	}
	if len(acts) == 0 {
		return []Grade{}, nil
	}
	return svc.repo.ListGrades(ctx, activityIDs(acts)...)
}

// StageSummaries returns the budget usage of every stage of the class.
func (svc *Service) StageSummaries(ctx context.Context, classID string) ([]StageSummary, error) {
	c, err := svc.classRepo.Get(ctx, classID)
	if err != nil {
		return nil, err
	}
	acts, err := svc.repo.ListActivities(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing activities")
	}
	return SummarizeStages(c, acts), nil
}

// StudentTotals returns the student's total per stage of the class.
func (svc *Service) StudentTotals(ctx context.Context, classID, studentID string) ([]StageTotal, error) {
	c, err := svc.classRepo.Get(ctx, classID)
	if err != nil {
		return nil, err
	}
	acts, err := svc.repo.ListActivities(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing activities")
	}
	grades, err := svc.gradesOf(ctx, acts)
	if err != nil {
		return nil, err
	}

	totals := make([]StageTotal, 0, len(c.Stages))
	for _, s := range c.Stages {
		totals = append(totals, StageTotal{
			StageID:   s.ID,
			Name:      s.Name,
			MaxPoints: s.MaxPoints,
			Total:     StudentStageTotal(studentID, s.ID, acts, grades),
		})
	}
	return totals, nil
}

func (svc *Service) gradesOf(ctx context.Context, acts []Activity) ([]Grade, error) {
	if len(acts) == 0 {
		return []Grade{}, nil
	}
	grades, err := svc.repo.ListGrades(ctx, activityIDs(acts)...)
	return grades, errors.Wrap(err, "listing grades")
}

func activityIDs(acts []Activity) []string {
	ids := make([]string, 0, len(acts))
	for _, a := range acts {
		ids = append(ids, a.ID)
	}
	return ids
}
