package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Student is an enrolled learner. Each student has a shadow user.User with the same ID.
// The Original* fields record provenance when imported from an external roster.
type Student struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	EnrollmentDate  time.Time `json:"enrollmentDate"`
	OriginalClass   string    `json:"originalClass,omitempty"`
	OriginalTeacher string    `json:"originalTeacher,omitempty"`
	OriginalLevel   string    `json:"originalLevel,omitempty"`
}

// Enrollment ties a student to a class. Closed enrollments are kept as history.
type Enrollment struct {
	ClassID   string     `json:"classId"`
	StudentID string     `json:"studentId"`
	Active    bool       `json:"active"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Close ends the enrollment at t.
func (e *Enrollment) Close(t time.Time) {
	e.Active = false
	e.EndDate = &t
}

// NewStudent contains information needed to enroll a student.
type NewStudent struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password"`
	OriginalClass   string `json:"originalClass"`
	OriginalTeacher string `json:"originalTeacher"`
	OriginalLevel   string `json:"originalLevel"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.OriginalClass = core.CleanString(ns.OriginalClass)
	ns.OriginalTeacher = core.CleanString(ns.OriginalTeacher)
	ns.OriginalLevel = core.CleanString(ns.OriginalLevel)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	return validate.Struct(us)
}

// TransferRequest moves a student from one class to another.
type TransferRequest struct {
	FromClassID string `json:"fromClassId" validate:"required"`
	ToClassID   string `json:"toClassId" validate:"required,nefield=FromClassID"`
}
