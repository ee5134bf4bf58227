package tutor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/quiz"
)

// QuizTTL is how long a generated quiz can be submitted.
const QuizTTL = 2 * time.Hour

var (
	// errors
	ErrAnswerCount  = errors.New("one answer is expected per question")
	ErrQuizNotFound = core.NewNotFoundError("quiz not found or expired")
)

type (
	Service struct {
		assistant Assistant
		quizSvc   *quiz.Service
		validate  *validator.Validate

		mutex   sync.Mutex
		pending map[string]pendingQuiz // by quiz id
	}

	pendingQuiz struct {
		quiz      Quiz
		expiresAt time.Time
	}
)

func NewService(assistant Assistant, quizSvc *quiz.Service, validate *validator.Validate) *Service {
	return &Service{
		assistant: assistant,
		quizSvc:   quizSvc,
		validate:  validate,
		pending:   make(map[string]pendingQuiz),
	}
}

func (svc *Service) Chat(ctx context.Context, req ChatRequest) (Message, error) {
	req.Prompt = core.CleanString(req.Prompt)
	if err := svc.validate.Struct(req); err != nil {
		return Message{}, err
	}
	answer, err := svc.assistant.Chat(ctx, req.History, req.Prompt)
	if err != nil {
		return Message{}, errors.Wrap(err, "chatting with assistant")
	}
	return Message{Role: RoleModel, Text: answer}, nil
}

// CheckGrammar corrects text and attaches a unified diff of the corrections.
func (svc *Service) CheckGrammar(ctx context.Context, req GrammarRequest) (GrammarReport, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := svc.validate.Struct(req); err != nil {
		return GrammarReport{}, err
	}
	report, err := svc.assistant.CheckGrammar(ctx, req.Text)
	if err != nil {
		return GrammarReport{}, errors.Wrap(err, "checking grammar")
	}
	report.Original = req.Text
	if report.Corrected == "" {
		report.Corrected = req.Text
	}
	if report.Issues == nil {
		report.Issues = []GrammarIssue{}
	}
	report.Diff = Diff(report.Original, report.Corrected)
	return report, nil
}

// Diff returns a unified diff between original and corrected, one sentence per line.
// It is empty when both are equal.
func Diff(original, corrected string) string {
	if original == corrected {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(sentencePerLine(original)),
		B:        difflib.SplitLines(sentencePerLine(corrected)),
		FromFile: "original",
		ToFile:   "corrected",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}

func sentencePerLine(text string) string {
	r := strings.NewReplacer(". ", ".\n", "? ", "?\n", "! ", "!\n")
	return r.Replace(strings.TrimSpace(text)) + "\n"
}

// GenerateQuiz returns a new quiz sheet. The answer key is kept until the quiz is submitted or expires.
func (svc *Service) GenerateQuiz(ctx context.Context, req QuizRequest) (QuizSheet, error) {
	if err := req.Validate(svc.validate); err != nil {
		return QuizSheet{}, err
	}
	q, err := svc.assistant.GenerateQuiz(ctx, req)
	if err != nil {
		return QuizSheet{}, errors.Wrap(err, "generating quiz")
	}
	q.ID = core.NewID()
	q.Topic, q.Level, q.Mode = req.Topic, req.Level, req.Mode

	now := core.NowFunc()
	expiresAt := now.Add(QuizTTL)
	svc.mutex.Lock()
	for id, p := range svc.pending {
		if !now.Before(p.expiresAt) {
			delete(svc.pending, id)
		}
	}
	svc.pending[q.ID] = pendingQuiz{quiz: q, expiresAt: expiresAt}
	svc.mutex.Unlock()

	return q.sheet(expiresAt), nil
}

// takeQuiz removes and returns the pending quiz once answers fit it.
func (svc *Service) takeQuiz(id string, answers []int) (Quiz, error) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	p, ok := svc.pending[id]
	if !ok || !core.NowFunc().Before(p.expiresAt) {
		delete(svc.pending, id)
		return Quiz{}, ErrQuizNotFound
	}
	if len(answers) != len(p.quiz.Questions) {
		return Quiz{}, core.NewValidationError(ErrAnswerCount, core.FieldError{Field: "answers", Error: ErrAnswerCount.Error()})
	}
	delete(svc.pending, id)
	return p.quiz, nil
}

func (svc *Service) StudyPlan(ctx context.Context, req PlanRequest) (StudyPlan, error) {
	if err := req.Validate(svc.validate); err != nil {
		return StudyPlan{}, err
	}
	plan, err := svc.assistant.StudyPlan(ctx, req)
	if err != nil {
		return StudyPlan{}, errors.Wrap(err, "generating study plan")
	}
	plan.Goal, plan.Level = req.Goal, req.Level
	return plan, nil
}

// QuizResult is the outcome of a submitted quiz. Questions carries the answer key.
type QuizResult struct {
	Correct   int           `json:"correct"`
	Total     int           `json:"total"`
	Questions []Question    `json:"questions"`
	Attempt   quiz.Attempt  `json:"attempt"`
	Progress  quiz.Progress `json:"progress"`
}

// SubmitQuiz grades the answers against the key of a generated quiz and records the attempt
// of studentID (anonymous when empty). A quiz is graded once.
func (svc *Service) SubmitQuiz(ctx context.Context, studentID string, sub QuizSubmission) (QuizResult, error) {
	sub.QuizID = core.CleanString(sub.QuizID)
	if err := svc.validate.Struct(sub); err != nil {
		return QuizResult{}, err
	}
	q, err := svc.takeQuiz(sub.QuizID, sub.Answers)
	if err != nil {
		return QuizResult{}, err
	}

	correct := Score(q, sub.Answers)
	attempt, err := svc.quizSvc.Record(ctx, quiz.NewAttempt{
		StudentID:      studentID,
		Mode:           q.Mode,
		Level:          q.Level,
		Correct:        correct,
		TotalQuestions: len(q.Questions),
	})
	if err != nil {
		return QuizResult{}, errors.Wrap(err, "recording quiz attempt")
	}
	progress, err := svc.quizSvc.Progress(ctx, studentID)
	if err != nil {
		return QuizResult{}, errors.Wrap(err, "computing progress")
	}
	return QuizResult{
		Correct:   correct,
		Total:     len(q.Questions),
		Questions: q.Questions,
		Attempt:   attempt,
		Progress:  progress,
	}, nil
}

// Score counts the correct answers.
func Score(q Quiz, answers []int) int {
	var correct int
	for i, qst := range q.Questions {
		if i < len(answers) && answers[i] == qst.Answer {
			correct++
		}
	}
	return correct
}
