package tutor

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Chat roles
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Quiz modes
const (
	ModeVocabulary = "vocabulary"
	ModeGrammar    = "grammar"
	ModeReading    = "reading"
)

type (
	// Assistant is the generative language service behind the learning tools.
	Assistant interface {
		Chat(ctx context.Context, history []Message, prompt string) (string, error)
		CheckGrammar(ctx context.Context, text string) (GrammarReport, error)
		GenerateQuiz(ctx context.Context, req QuizRequest) (Quiz, error)
		StudyPlan(ctx context.Context, req PlanRequest) (StudyPlan, error)
	}

	Message struct {
		Role string `json:"role" validate:"oneof=user model"`
		Text string `json:"text" validate:"required"`
	}

	GrammarIssue struct {
		Original    string `json:"original"`
		Suggestion  string `json:"suggestion"`
		Explanation string `json:"explanation"`
	}

	GrammarReport struct {
		Original  string         `json:"original"`
		Corrected string         `json:"corrected"`
		Issues    []GrammarIssue `json:"issues"`
		// Diff is a unified diff from Original to Corrected.
		Diff string `json:"diff"`
	}

	Question struct {
		Prompt      string   `json:"prompt"`
		Options     []string `json:"options"`
		Answer      int      `json:"answer"`
		Explanation string   `json:"explanation,omitempty"`
	}

	// Quiz is a generated quiz with its answer key.
	Quiz struct {
		ID        string     `json:"id"`
		Topic     string     `json:"topic"`
		Level     string     `json:"level"`
		Mode      string     `json:"mode"`
		Questions []Question `json:"questions"`
	}

	// SheetQuestion is a question as served to the learner.
	SheetQuestion struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
	}

	// QuizSheet is a generated quiz without its answer key, which stays on the server
	// until the quiz is submitted.
	QuizSheet struct {
		ID        string          `json:"id"`
		Topic     string          `json:"topic"`
		Level     string          `json:"level"`
		Mode      string          `json:"mode"`
		Questions []SheetQuestion `json:"questions"`
		ExpiresAt time.Time       `json:"expiresAt"`
	}

	StudyWeek struct {
		Week  int      `json:"week"`
		Focus string   `json:"focus"`
		Tasks []string `json:"tasks"`
	}

	StudyPlan struct {
		Goal  string      `json:"goal"`
		Level string      `json:"level"`
		Weeks []StudyWeek `json:"weeks"`
	}
)

type (
	ChatRequest struct {
		History []Message `json:"history" validate:"dive"`
		Prompt  string    `json:"prompt" validate:"required,notblank"`
	}

	GrammarRequest struct {
		Text string `json:"text" validate:"required,notblank,max=5000"`
	}

	QuizRequest struct {
		Topic string `json:"topic" validate:"required,notblank"`
		Level string `json:"level" validate:"required"`
		Mode  string `json:"mode" validate:"required,oneof=vocabulary grammar reading"`
		Count int    `json:"count" validate:"min=1,max=20"`
	}

	PlanRequest struct {
		Goal  string `json:"goal" validate:"required,notblank"`
		Level string `json:"level" validate:"required"`
		Weeks int    `json:"weeks" validate:"min=1,max=12"`
	}

	// QuizSubmission holds the answers (option indexes) given to a generated quiz.
	QuizSubmission struct {
		QuizID  string `json:"quizId" validate:"required"`
		Answers []int  `json:"answers" validate:"required"`
	}
)

func (q Quiz) sheet(expiresAt time.Time) QuizSheet {
	qs := make([]SheetQuestion, 0, len(q.Questions))
	for _, qst := range q.Questions {
		qs = append(qs, SheetQuestion{Prompt: qst.Prompt, Options: qst.Options})
	}
	return QuizSheet{ID: q.ID, Topic: q.Topic, Level: q.Level, Mode: q.Mode, Questions: qs, ExpiresAt: expiresAt}
}

func (qr *QuizRequest) Validate(validate *validator.Validate) error {
	qr.Topic = core.CleanString(qr.Topic)
	qr.Level = core.CleanString(qr.Level)
	qr.Mode = core.CleanString(qr.Mode, true /* lower */)
	if qr.Count == 0 {
		qr.Count = 5
	}
	return validate.Struct(qr)
}

func (pr *PlanRequest) Validate(validate *validator.Validate) error {
	pr.Goal = core.CleanString(pr.Goal)
	pr.Level = core.CleanString(pr.Level)
	if pr.Weeks == 0 {
		pr.Weeks = 4
	}
	return validate.Struct(pr)
}
