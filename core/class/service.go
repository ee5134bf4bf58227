package class

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/user"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("class not found")
	ErrStageNotFound  = core.NewNotFoundError("stage not found")
	ErrDuplicateStage = errors.New("stage ids must be unique within a class")
	ErrInvalidTeacher = errors.New("teacher must be an existing teacher or admin")
)

type (
	Repository interface {
		Create(ctx context.Context, c ClassGroup) (ClassGroup, error)
		// Modify applies fn to the stored class and saves the result atomically.
		// Nothing is written when fn fails. fn must not call back into the repositories.
		Modify(ctx context.Context, id string, fn func(c *ClassGroup) error) (ClassGroup, error)
		Get(ctx context.Context, id string) (ClassGroup, error)
		// FindByName does a case-insensitive lookup by name.
		FindByName(ctx context.Context, name string) (ClassGroup, error)
		List(ctx context.Context) ([]ClassGroup, error)
		ListByTeacher(ctx context.Context, teacherID string) ([]ClassGroup, error)
		// RemoveStage removes the stage with its activities, their grades and the stage feedback.
		RemoveStage(ctx context.Context, classID, stageID string) error
		// Delete removes the class with its enrollments, activities, grades, feedback
		// and the students (and their users) enrolled in no other class.
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		usrRepo  user.Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, usrRepo user.Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, usrRepo: usrRepo, validate: validate}
}

func (svc *Service) checkTeacher(ctx context.Context, teacherID string) error {
	usr, err := svc.usrRepo.Get(ctx, teacherID)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return errors.Wrap(err, "finding teacher")
	}
	if err != nil || !(usr.IsTeacher() || usr.IsAdmin()) {
		return core.NewValidationError(ErrInvalidTeacher, core.FieldError{Field: "teacherId", Error: ErrInvalidTeacher.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (ClassGroup, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return ClassGroup{}, err
	}
	if err := svc.checkTeacher(ctx, nc.TeacherID); err != nil {
		return ClassGroup{}, err
	}
	c := ClassGroup{
		ID:        core.NewID(),
		Name:      nc.Name,
		Level:     nc.Level,
		Schedule:  nc.Schedule,
		TeacherID: nc.TeacherID,
		Stages:    make([]StageConfig, 0, len(nc.Stages)),
	}
	for _, ns := range nc.Stages {
		c.Stages = append(c.Stages, ns.toStage())
	}
	return svc.repo.Create(ctx, c)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateClass) (ClassGroup, error) {
	orig, err := svc.repo.Get(ctx, id)
	if err != nil {
		return ClassGroup{}, err
	}
	if err = uc.Validate(orig, svc.validate); err != nil {
		return ClassGroup{}, err
	}
	if uc.TeacherID != orig.TeacherID {
		if err = svc.checkTeacher(ctx, uc.TeacherID); err != nil {
			return ClassGroup{}, err
		}
	}
	return svc.repo.Modify(ctx, id, func(c *ClassGroup) error {
		c.Name = uc.Name
		c.TeacherID = uc.TeacherID
		if uc.Level != nil {
			c.Level = core.CleanString(*uc.Level)
		}
		if uc.Schedule != nil {
			c.Schedule = core.CleanString(*uc.Schedule)
		}
		return nil
	})
}

func (svc *Service) Get(ctx context.Context, id string) (ClassGroup, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) List(ctx context.Context) ([]ClassGroup, error) {
	return svc.repo.List(ctx)
}

func (svc *Service) ListByTeacher(ctx context.Context, teacherID string) ([]ClassGroup, error) {
	return svc.repo.ListByTeacher(ctx, teacherID)
}

// AddStage appends a stage to the class.
func (svc *Service) AddStage(ctx context.Context, classID string, ns NewStage) (ClassGroup, error) {
	ns.clean()
	if err := svc.validate.Struct(ns); err != nil {
		return ClassGroup{}, err
	}
	stage := ns.toStage()
	return svc.repo.Modify(ctx, classID, func(c *ClassGroup) error {
		if _, exists := c.Stage(stage.ID); exists {
			return core.NewValidationError(ErrDuplicateStage, core.FieldError{Field: "id", Error: ErrDuplicateStage.Error()})
		}
		c.Stages = append(c.Stages, stage)
		return nil
	})
}

// UpdateStage renames a stage or changes its budget.
// Lowering the budget below the points already distributed is allowed; the stage is then over budget.
func (svc *Service) UpdateStage(ctx context.Context, classID, stageID string, us UpdateStage) (ClassGroup, error) {
	if err := us.Validate(svc.validate); err != nil {
		return ClassGroup{}, err
	}
	return svc.repo.Modify(ctx, classID, func(c *ClassGroup) error {
		i := c.stageIndex(stageID)
		if i < 0 {
			return ErrStageNotFound
		}
		if us.Name != "" {
			c.Stages[i].Name = us.Name
		}
		if us.MaxPoints != nil {
			c.Stages[i].MaxPoints = *us.MaxPoints
		}
		return nil
	})
}

func (svc *Service) RemoveStage(ctx context.Context, classID, stageID string) error {
	c, err := svc.repo.Get(ctx, classID)
	if err != nil {
		return err
	}
	if _, ok := c.Stage(stageID); !ok {
		return ErrStageNotFound
	}
	return errors.Wrap(svc.repo.RemoveStage(ctx, classID, stageID), "removing stage")
}

// Delete removes the class and everything that belongs to it. This cannot be undone.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.Get(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting class")
}
