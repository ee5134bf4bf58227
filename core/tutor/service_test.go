package tutor_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/tutor"
	"github.com/trezcool/escola/tests"
)

type fakeAssistant struct {
	corrected string
	quiz      tutor.Quiz
	err       error
}

func (a *fakeAssistant) Chat(_ context.Context, history []tutor.Message, prompt string) (string, error) {
	return "echo: " + prompt, a.err
}

func (a *fakeAssistant) CheckGrammar(_ context.Context, text string) (tutor.GrammarReport, error) {
	return tutor.GrammarReport{Corrected: a.corrected}, a.err
}

func (a *fakeAssistant) GenerateQuiz(_ context.Context, req tutor.QuizRequest) (tutor.Quiz, error) {
	return a.quiz, a.err
}

func (a *fakeAssistant) StudyPlan(_ context.Context, req tutor.PlanRequest) (tutor.StudyPlan, error) {
	weeks := make([]tutor.StudyWeek, 0, req.Weeks)
	for i := 1; i <= req.Weeks; i++ {
		weeks = append(weeks, tutor.StudyWeek{Week: i})
	}
	return tutor.StudyPlan{Weeks: weeks}, a.err
}

func newService(t *testing.T, a tutor.Assistant) *tutor.Service {
	env := testutil.NewEnv(t)
	return tutor.NewService(a, env.QuizSvc, env.Validate)
}

func sampleQuiz() tutor.Quiz {
	return tutor.Quiz{
		Mode: tutor.ModeVocabulary,
		Questions: []tutor.Question{
			{Prompt: "1", Options: []string{"a", "b"}, Answer: 0},
			{Prompt: "2", Options: []string{"a", "b"}, Answer: 1},
			{Prompt: "3", Options: []string{"a", "b"}, Answer: 1},
			{Prompt: "4", Options: []string{"a", "b"}, Answer: 0},
			{Prompt: "5", Options: []string{"a", "b"}, Answer: 0},
		},
	}
}

func TestDiff(t *testing.T) {
	assert.Empty(t, tutor.Diff("I am here. You are there.", "I am here. You are there."))

	diff := tutor.Diff("I is here. You are there.", "I am here. You are there.")
	assert.Contains(t, diff, "--- original")
	assert.Contains(t, diff, "+++ corrected")
	assert.Contains(t, diff, "-I is here.")
	assert.Contains(t, diff, "+I am here.")
	assert.NotContains(t, diff, "-You are there.")
}

func TestScore(t *testing.T) {
	q := sampleQuiz()
	assert.Equal(t, 5, tutor.Score(q, []int{0, 1, 1, 0, 0}))
	assert.Equal(t, 3, tutor.Score(q, []int{0, 1, 1, 1, 1}))
	assert.Equal(t, 2, tutor.Score(q, []int{0, 1}))
}

func TestService_SubmitQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &fakeAssistant{quiz: sampleQuiz()})
	req := tutor.QuizRequest{Topic: "Travel", Level: "A2", Mode: tutor.ModeVocabulary}

	sheet, err := svc.GenerateQuiz(ctx, req)
	require.NoError(t, err)

	// a wrong answer count leaves the quiz open
	_, err = svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{QuizID: sheet.ID, Answers: []int{0}})
	assert.True(t, errors.Is(err, tutor.ErrAnswerCount))

	res, err := svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{QuizID: sheet.ID, Answers: []int{0, 1, 1, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Correct)
	assert.Equal(t, sampleQuiz().Questions, res.Questions)
	assert.Equal(t, 100, res.Attempt.XPEarned)
	assert.Equal(t, "s1", res.Attempt.StudentID)
	assert.Equal(t, "A2", res.Attempt.Level)
	assert.Equal(t, 100, res.Progress.TotalXP)

	// graded once
	_, err = svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{QuizID: sheet.ID, Answers: []int{0, 1, 1, 0, 0}})
	assert.True(t, errors.Is(err, tutor.ErrQuizNotFound))

	sheet, err = svc.GenerateQuiz(ctx, req)
	require.NoError(t, err)
	res, err = svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{QuizID: sheet.ID, Answers: []int{0, 1, 1, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Attempt.XPEarned)
	assert.Equal(t, 130, res.Progress.TotalXP)
	assert.Equal(t, 2, res.Progress.Attempts)

	_, err = svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{QuizID: "made-up", Answers: []int{0, 1, 1, 0, 0}})
	assert.True(t, core.IsNotFound(err))
	_, err = svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{Answers: []int{0}})
	assert.True(t, core.IsValidationError(err))
}

func TestService_SubmitExpiredQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &fakeAssistant{quiz: sampleQuiz()})

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	nowFunc := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = nowFunc }()

	sheet, err := svc.GenerateQuiz(ctx, tutor.QuizRequest{Topic: "Travel", Level: "A2", Mode: tutor.ModeGrammar})
	require.NoError(t, err)
	assert.Equal(t, now.Add(tutor.QuizTTL), sheet.ExpiresAt)

	now = now.Add(tutor.QuizTTL)
	_, err = svc.SubmitQuiz(ctx, "s1", tutor.QuizSubmission{QuizID: sheet.ID, Answers: []int{0, 1, 1, 0, 0}})
	assert.True(t, errors.Is(err, tutor.ErrQuizNotFound))
}

func TestService_CheckGrammar(t *testing.T) {
	ctx := context.Background()

	report, err := newService(t, &fakeAssistant{corrected: "I am here."}).CheckGrammar(ctx, tutor.GrammarRequest{Text: " I is here. "})
	require.NoError(t, err)
	assert.Equal(t, "I is here.", report.Original)
	assert.NotNil(t, report.Issues)
	assert.Contains(t, report.Diff, "+I am here.")

	// nothing corrected
	report, err = newService(t, &fakeAssistant{}).CheckGrammar(ctx, tutor.GrammarRequest{Text: "I am here."})
	require.NoError(t, err)
	assert.Equal(t, "I am here.", report.Corrected)
	assert.Empty(t, report.Diff)

	_, err = newService(t, &fakeAssistant{}).CheckGrammar(ctx, tutor.GrammarRequest{Text: "  "})
	assert.True(t, core.IsValidationError(err))

	_, err = newService(t, &fakeAssistant{err: errors.New("quota")}).CheckGrammar(ctx, tutor.GrammarRequest{Text: "x"})
	assert.Error(t, err)
}

func TestService_GenerateQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &fakeAssistant{quiz: sampleQuiz()})

	tests := []struct {
		name    string
		req     tutor.QuizRequest
		wantErr bool
	}{
		{name: "valid", req: tutor.QuizRequest{Topic: " Travel ", Level: "A2", Mode: "Vocabulary"}},
		{name: "unknown mode", req: tutor.QuizRequest{Topic: "Travel", Level: "A2", Mode: "poetry"}, wantErr: true},
		{name: "no topic", req: tutor.QuizRequest{Level: "A2", Mode: tutor.ModeGrammar}, wantErr: true},
		{name: "too many questions", req: tutor.QuizRequest{Topic: "Travel", Level: "A2", Mode: tutor.ModeReading, Count: 21}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.GenerateQuiz(ctx, tt.req)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Travel", q.Topic)
			assert.Equal(t, tutor.ModeVocabulary, q.Mode)
			assert.NotEmpty(t, q.ID)
			assert.Len(t, q.Questions, 5)
		})
	}
}

func TestService_StudyPlan(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &fakeAssistant{})

	plan, err := svc.StudyPlan(ctx, tutor.PlanRequest{Goal: "Pass B1 exam", Level: "A2"})
	require.NoError(t, err)
	assert.Equal(t, "Pass B1 exam", plan.Goal)
	assert.Len(t, plan.Weeks, 4)

	msg, err := svc.Chat(ctx, tutor.ChatRequest{Prompt: " hello "})
	require.NoError(t, err)
	assert.Equal(t, tutor.RoleModel, msg.Role)
	assert.Equal(t, "echo: hello", msg.Text)
}
