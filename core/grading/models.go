package grading

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Activity is a gradable assignment of one stage of a class.
type Activity struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"classId"`
	Title     string    `json:"title"`
	StageID   string    `json:"stageId"`
	MaxPoints float64   `json:"maxPoints"`
	Date      time.Time `json:"date"`
}

// Grade is the score of a student on an activity. There is at most one per (ActivityID, StudentID).
type Grade struct {
	ActivityID string  `json:"activityId"`
	StudentID  string  `json:"studentId"`
	Value      float64 `json:"value"`
}

// NewActivity contains information needed to create a new Activity.
type NewActivity struct {
	ClassID   string    `json:"classId" validate:"required"`
	Title     string    `json:"title" validate:"required,notblank"`
	StageID   string    `json:"stageId" validate:"required"`
	MaxPoints float64   `json:"maxPoints" validate:"gt=0"`
	Date      time.Time `json:"date"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.ClassID = core.CleanString(na.ClassID)
	na.Title = core.CleanString(na.Title)
	na.StageID = core.CleanString(na.StageID)
	if na.Date.IsZero() {
		na.Date = core.NowFunc()
	}
	return validate.Struct(na)
}

// UpdateActivity defines what information may be provided to modify an existing Activity.
type UpdateActivity struct {
	Title     string     `json:"title"`
	MaxPoints *float64   `json:"maxPoints" validate:"omitempty,gt=0"`
	Date      *time.Time `json:"date"`
}

func (ua *UpdateActivity) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	return validate.Struct(ua)
}

// SetGrade contains the value of a grade. Value is bounded by the activity's MaxPoints.
type SetGrade struct {
	StudentID string   `json:"studentId" validate:"required"`
	Value     *float64 `json:"value" validate:"required,min=0"`
}
