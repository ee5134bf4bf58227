package student

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("student not found")
	ErrNotEnrolled     = errors.New("student has no active enrollment in this class")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this class")
	ErrNeverEnrolled   = errors.New("student was never enrolled in this class")
	ErrEmailTaken      = errors.New("this email belongs to a non-student account")
)

type (
	Repository interface {
		// Enroll creates the student, its shadow user and an active enrollment in classID.
		// A student with the same email (case-insensitive) is reused, and a new enrollment
		// is opened unless one is already active in classID.
		Enroll(ctx context.Context, s Student, password, classID string) (Student, error)
		// Transfer closes the active enrollment in fromClassID and opens one in toClassID.
		Transfer(ctx context.Context, studentID, fromClassID, toClassID string) error
		// Unenroll closes the active enrollment in classID.
		Unenroll(ctx context.Context, studentID, classID string) error
		Get(ctx context.Context, id string) (Student, error)
		FindByEmail(ctx context.Context, email string) (Student, error)
		List(ctx context.Context) ([]Student, error)
		ListByClass(ctx context.Context, classID string, activeOnly bool) ([]Student, error)
		// History returns every enrollment of the student, closed ones included.
		History(ctx context.Context, studentID string) ([]Enrollment, error)
		// Update saves the student and keeps its shadow user in sync.
		Update(ctx context.Context, s Student) (Student, error)
		// Delete removes the student with its user, enrollments, grades and feedback.
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo      Repository
		classRepo class.Repository
		usrRepo   user.Repository
		validate  *validator.Validate
	}
)

func NewService(repo Repository, classRepo class.Repository, usrRepo user.Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, classRepo: classRepo, usrRepo: usrRepo, validate: validate}
}

// Enroll enrolls a (new or existing) student in classID.
// Without a password the student's email is used as the initial one.
func (svc *Service) Enroll(ctx context.Context, ns NewStudent, classID string) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if _, err := svc.classRepo.Get(ctx, classID); err != nil {
		return Student{}, err
	}

	// the email may already belong to a staff account
	if usr, err := svc.usrRepo.Find(ctx, ns.Email); err == nil && !usr.IsStudent() {
		return Student{}, core.NewValidationError(ErrEmailTaken, core.FieldError{Field: "email", Error: ErrEmailTaken.Error()})
	} else if err != nil && !errors.Is(err, user.ErrNotFound) {
		return Student{}, errors.Wrap(err, "finding user by email")
	}

	pwd := ns.Password
	if pwd == "" {
		pwd = ns.Email
	}
	s := Student{
		ID:              core.NewID(),
		Name:            ns.Name,
		Email:           ns.Email,
		EnrollmentDate:  core.NowFunc(),
		OriginalClass:   ns.OriginalClass,
		OriginalTeacher: ns.OriginalTeacher,
		OriginalLevel:   ns.OriginalLevel,
	}
	return svc.repo.Enroll(ctx, s, pwd, classID)
}

// Transfer moves the student to another class, keeping the closed enrollment as history.
func (svc *Service) Transfer(ctx context.Context, studentID string, tr TransferRequest) error {
	if err := svc.validate.Struct(tr); err != nil {
		return err
	}
	if _, err := svc.repo.Get(ctx, studentID); err != nil {
		return err
	}
	if _, err := svc.classRepo.Get(ctx, tr.ToClassID); err != nil {
		return err
	}
	return enrollmentError(svc.repo.Transfer(ctx, studentID, tr.FromClassID, tr.ToClassID))
}

func (svc *Service) Unenroll(ctx context.Context, studentID, classID string) error {
	return enrollmentError(svc.repo.Unenroll(ctx, studentID, classID))
}

// enrollmentError turns the enrollment state errors of the repository into validation errors.
func enrollmentError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotEnrolled), errors.Is(err, ErrAlreadyEnrolled):
		return core.NewValidationError(errors.Cause(err))
	}
	return err
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) List(ctx context.Context) ([]Student, error) {
	return svc.repo.List(ctx)
}

func (svc *Service) ListByClass(ctx context.Context, classID string, activeOnly bool) ([]Student, error) {
	return svc.repo.ListByClass(ctx, classID, activeOnly)
}

func (svc *Service) History(ctx context.Context, studentID string) ([]Enrollment, error) {
	if _, err := svc.repo.Get(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.History(ctx, studentID)
}

// CheckMember fails unless the student exists and holds an enrollment, active or not, in classID.
func CheckMember(ctx context.Context, repo Repository, studentID, classID string) error {
	if _, err := repo.Get(ctx, studentID); err != nil {
		return err
	}
	enrs, err := repo.History(ctx, studentID)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	for _, e := range enrs {
		if e.ClassID == classID {
			return nil
		}
	}
	return core.NewValidationError(ErrNeverEnrolled, core.FieldError{Field: "studentId", Error: ErrNeverEnrolled.Error()})
}

// IsEnrolled reports whether the student has an active enrollment in classID.
func (svc *Service) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	enrs, err := svc.repo.History(ctx, studentID)
	if err != nil {
		return false, err
	}
	for _, e := range enrs {
		if e.ClassID == classID && e.Active {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = us.Validate(s, svc.validate); err != nil {
		return Student{}, err
	}
	if !core.EqualFold(us.Email, s.Email) {
		if _, err = svc.usrRepo.Find(ctx, us.Email); err == nil {
			return Student{}, core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
		} else if !errors.Is(err, user.ErrNotFound) {
			return Student{}, errors.Wrap(err, "finding user by email")
		}
	}
	s.Name = us.Name
	s.Email = us.Email
	return svc.repo.Update(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.Get(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting student")
}
