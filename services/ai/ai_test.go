package aisvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core/tutor"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`},
		{in: `Sure! {"a":1} Hope it helps.`, want: `{"a":1}`},
		{in: `no json here`, want: ""},
		{in: `} {`, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in), tt.in)
	}
}

func TestOffline_CheckGrammar(t *testing.T) {
	report, err := Offline{}.CheckGrammar(context.Background(), "i is  tired. she don't know. they was here.")
	require.NoError(t, err)
	assert.Equal(t, "I am tired. She doesn't know. They were here.", report.Corrected)
	assert.Len(t, report.Issues, 3)

	report, err = Offline{}.CheckGrammar(context.Background(), "All good here.")
	require.NoError(t, err)
	assert.Equal(t, "All good here.", report.Corrected)
	assert.Empty(t, report.Issues)
}

func TestOffline_GenerateQuiz(t *testing.T) {
	q, err := Offline{}.GenerateQuiz(context.Background(), tutor.QuizRequest{Count: 10})
	require.NoError(t, err)
	require.Len(t, q.Questions, 10)
	for i, qst := range q.Questions {
		require.Len(t, qst.Options, 3)
		entry := vocabulary[i%len(vocabulary)]
		assert.Equal(t, entry.meaning, qst.Options[qst.Answer], "question %d", i)
	}
}

func TestOffline_StudyPlan(t *testing.T) {
	plan, err := Offline{}.StudyPlan(context.Background(), tutor.PlanRequest{Goal: "Travel", Level: "A2", Weeks: 3})
	require.NoError(t, err)
	require.Len(t, plan.Weeks, 3)
	assert.Equal(t, 3, plan.Weeks[2].Week)
	assert.NotEmpty(t, plan.Weeks[0].Tasks)
}
