package class

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// StageConfig is a grading period of a class with the point budget shared by its activities.
type StageConfig struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MaxPoints int    `json:"maxPoints"`
}

// ClassGroup is a class. Stage order is the display order.
type ClassGroup struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Level     string        `json:"level"`
	Schedule  string        `json:"schedule"`
	TeacherID string        `json:"teacherId"`
	Stages    []StageConfig `json:"stages"`
}

// Stage returns the stage identified by id.
func (c ClassGroup) Stage(id string) (StageConfig, bool) {
	for _, s := range c.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return StageConfig{}, false
}

func (c ClassGroup) stageIndex(id string) int {
	for i, s := range c.Stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// NewStage contains information needed to add a stage to a class.
// ID is optional; one is generated when missing.
type NewStage struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,notblank"`
	MaxPoints int    `json:"maxPoints" validate:"min=0"`
}

func (ns *NewStage) clean() {
	ns.ID = core.CleanString(ns.ID)
	ns.Name = core.CleanString(ns.Name)
}

func (ns NewStage) toStage() StageConfig {
	id := ns.ID
	if id == "" {
		id = core.NewID()
	}
	return StageConfig{ID: id, Name: ns.Name, MaxPoints: ns.MaxPoints}
}

// NewClass contains information needed to create a new ClassGroup.
type NewClass struct {
	Name      string     `json:"name" validate:"required,notblank"`
	Level     string     `json:"level"`
	Schedule  string     `json:"schedule"`
	TeacherID string     `json:"teacherId" validate:"required"`
	Stages    []NewStage `json:"stages" validate:"dive"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Level = core.CleanString(nc.Level)
	nc.Schedule = core.CleanString(nc.Schedule)
	nc.TeacherID = core.CleanString(nc.TeacherID)
	for i := range nc.Stages {
		nc.Stages[i].clean()
	}
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return checkStageIDs(nc.Stages)
}

// UpdateClass defines what information may be provided to modify an existing ClassGroup.
// Stages are managed through the stage operations.
type UpdateClass struct {
	Name      string  `json:"name"`
	Level     *string `json:"level"`
	Schedule  *string `json:"schedule"`
	TeacherID string  `json:"teacherId"`
}

func (uc *UpdateClass) Validate(orig ClassGroup, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if tid := core.CleanString(uc.TeacherID); tid != "" {
		uc.TeacherID = tid
	} else {
		uc.TeacherID = orig.TeacherID
	}
	return validate.Struct(uc)
}

// UpdateStage defines what information may be provided to modify a stage.
type UpdateStage struct {
	Name      string `json:"name"`
	MaxPoints *int   `json:"maxPoints" validate:"omitempty,min=0"`
}

func (us *UpdateStage) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	return validate.Struct(us)
}

func checkStageIDs(stages []NewStage) error {
	seen := make(map[string]struct{}, len(stages))
	for _, s := range stages {
		if s.ID == "" {
			continue
		}
		if _, ok := seen[s.ID]; ok {
			return core.NewValidationError(ErrDuplicateStage, core.FieldError{Field: "stages", Error: ErrDuplicateStage.Error()})
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}
