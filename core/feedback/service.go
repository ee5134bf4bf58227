package feedback

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/student"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("feedback not found")
)

type (
	Repository interface {
		// Save upserts f on (StudentID, ClassID, StageID).
		Save(ctx context.Context, f Feedback) (Feedback, error)
		Get(ctx context.Context, studentID, classID, stageID string) (Feedback, error)
		ListByClass(ctx context.Context, classID string) ([]Feedback, error)
		ListByStudent(ctx context.Context, studentID string) ([]Feedback, error)
		Delete(ctx context.Context, id string) error
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

// Save records the feedback of a student for a class stage, replacing any previous one.
func (svc *Service) Save(ctx context.Context, sf SaveFeedback) (Feedback, error) {
	if err := sf.Validate(svc.validate); err != nil {
		return Feedback{}, err
	}
	c, err := svc.classRepo.Get(ctx, sf.ClassID)
	if err != nil {
		return Feedback{}, err
	}
	if _, ok := c.Stage(sf.StageID); !ok {
		return Feedback{}, class.ErrStageNotFound
	}
	if err = student.CheckMember(ctx, svc.stuRepo, sf.StudentID, c.ID); err != nil {
		return Feedback{}, err
	}
	return svc.repo.Save(ctx, Feedback{
		ID:            core.NewID(),
		StudentID:     sf.StudentID,
		ClassID:       sf.ClassID,
		StageID:       sf.StageID,
		Attendance:    sf.Attendance,
		Behavior:      sf.Behavior,
		Participation: sf.Participation,
		Homework:      sf.Homework,
		Comments:      sf.Comments,
		UpdatedAt:     core.NowFunc(),
	})
}

func (svc *Service) Get(ctx context.Context, studentID, classID, stageID string) (Feedback, error) {
	return svc.repo.Get(ctx, studentID, classID, stageID)
}

func (svc *Service) ListByClass(ctx context.Context, classID string) ([]Feedback, error) {
	return svc.repo.ListByClass(ctx, classID)
}

func (svc *Service) ListByStudent(ctx context.Context, studentID string) ([]Feedback, error) {
	return svc.repo.ListByStudent(ctx, studentID)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}
