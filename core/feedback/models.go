package feedback

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Qualitative scales
var (
	Behaviors      = []string{"Excelente", "Bom", "Regular", "Ruim"}
	Participations = []string{"Alta", "Média", "Baixa"}
	Homeworks      = []string{"Completo", "Parcial", "Não Fez"}
)

// Feedback is the qualitative evaluation of a student for a stage of a class.
// There is at most one per (StudentID, ClassID, StageID); ID is not part of that key.
type Feedback struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"studentId"`
	ClassID       string    `json:"classId"`
	StageID       string    `json:"stageId"`
	Attendance    int       `json:"attendance"`
	Behavior      string    `json:"behavior"`
	Participation string    `json:"participation"`
	Homework      string    `json:"homework"`
	Comments      string    `json:"comments"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SameKey reports whether f and other evaluate the same student, class and stage.
func (f Feedback) SameKey(other Feedback) bool {
	return f.StudentID == other.StudentID && f.ClassID == other.ClassID && f.StageID == other.StageID
}

// SaveFeedback contains the information of a feedback record.
type SaveFeedback struct {
	StudentID     string `json:"studentId" validate:"required"`
	ClassID       string `json:"classId" validate:"required"`
	StageID       string `json:"stageId" validate:"required"`
	Attendance    int    `json:"attendance" validate:"min=0,max=100"`
	Behavior      string `json:"behavior" validate:"required,behavior"`
	Participation string `json:"participation" validate:"required,participation"`
	Homework      string `json:"homework" validate:"required,homework"`
	Comments      string `json:"comments"`
}

func (sf *SaveFeedback) Validate(validate *validator.Validate) error {
	sf.Behavior = core.CleanString(sf.Behavior)
	sf.Participation = core.CleanString(sf.Participation)
	sf.Homework = core.CleanString(sf.Homework)
	sf.Comments = core.CleanString(sf.Comments)
	return validate.Struct(sf)
}
