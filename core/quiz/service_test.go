package quiz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/quiz"
	"github.com/trezcool/escola/tests"
)

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)

	tests := []struct {
		name    string
		na      quiz.NewAttempt
		wantXP  int
		wantErr bool
	}{
		{name: "perfect", na: quiz.NewAttempt{StudentID: "s1", Mode: "vocabulary", Correct: 5, TotalQuestions: 5}, wantXP: 100},
		{name: "partial", na: quiz.NewAttempt{StudentID: "s1", Mode: " grammar ", Level: "A2", Correct: 3, TotalQuestions: 5}, wantXP: 30},
		{name: "anonymous", na: quiz.NewAttempt{Mode: "vocabulary", Correct: 1, TotalQuestions: 2}, wantXP: 10},
		{name: "no mode", na: quiz.NewAttempt{Correct: 1, TotalQuestions: 1}, wantErr: true},
		{name: "more correct than asked", na: quiz.NewAttempt{Mode: "vocabulary", Correct: 6, TotalQuestions: 5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := env.QuizSvc.Record(ctx, tt.na)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, a.ID)
			assert.Equal(t, tt.wantXP, a.XPEarned)
			assert.Equal(t, tt.na.Correct, a.Score)
		})
	}

	p, err := env.QuizSvc.Progress(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 130, p.TotalXP)
	assert.Equal(t, 2, p.Attempts)
	assert.Equal(t, 1, p.Level.Level)

	all, err := env.QuizSvc.Progress(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Attempts)
}

func TestService_Recent(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	for _, correct := range []int{1, 2, 3} {
		_, err := env.QuizSvc.Record(ctx, quiz.NewAttempt{StudentID: "s1", Mode: "vocabulary", Correct: correct, TotalQuestions: 5})
		require.NoError(t, err)
	}

	recent, err := env.QuizSvc.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	if assert.Len(t, recent, 2) {
		assert.Equal(t, 3, recent[0].Score)
		assert.Equal(t, 2, recent[1].Score)
	}

	recent, err = env.QuizSvc.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	recent, err = env.QuizSvc.Recent(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
