package aisvc

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/tutor"
)

// Offline is a deterministic tutor.Assistant used without an API key (debug, tests).
type Offline struct{}

var _ tutor.Assistant = Offline{}

type vocabEntry struct {
	word, meaning string
}

var (
	vocabulary = []vocabEntry{
		{"borrow", "take something with the intention of returning it"},
		{"schedule", "a plan of when things will happen"},
		{"cheap", "low in price"},
		{"arrive", "reach a place"},
		{"early", "before the usual time"},
		{"busy", "having a lot to do"},
		{"receipt", "a paper proving that you paid"},
		{"luggage", "the bags you take on a trip"},
	}

	focuses = []string{"Vocabulary building", "Grammar review", "Listening practice", "Reading comprehension", "Speaking practice", "Writing practice"}

	spaces        = regexp.MustCompile(`\s{2,}`)
	lowercaseI    = regexp.MustCompile(`\bi\b`)
	grammarFixers = []struct {
		re          *regexp.Regexp
		repl        string
		explanation string
	}{
		{regexp.MustCompile(`\b(I|i) is\b`), "I am", `use "am" with "I"`},
		{regexp.MustCompile(`\b(he|she|it|He|She|It) don't\b`), "$1 doesn't", `use "doesn't" in the third person singular`},
		{regexp.MustCompile(`\b(they|we|you|They|We|You) was\b`), "$1 were", `use "were" with plural subjects`},
	}
)

func (Offline) Chat(_ context.Context, _ []tutor.Message, prompt string) (string, error) {
	return fmt.Sprintf("The tutor is offline. You asked: %q. Try the grammar checker or a quiz meanwhile.", prompt), nil
}

// CheckGrammar fixes a few common mistakes, capitalization and spacing.
func (Offline) CheckGrammar(_ context.Context, text string) (tutor.GrammarReport, error) {
	report := tutor.GrammarReport{Issues: []tutor.GrammarIssue{}}
	corrected := spaces.ReplaceAllString(text, " ")
	for _, fix := range grammarFixers {
		for _, m := range fix.re.FindAllString(corrected, -1) {
			report.Issues = append(report.Issues, tutor.GrammarIssue{
				Original:    m,
				Suggestion:  fix.re.ReplaceAllString(m, fix.repl),
				Explanation: fix.explanation,
			})
		}
		corrected = fix.re.ReplaceAllString(corrected, fix.repl)
	}
	if lowercaseI.MatchString(corrected) {
		report.Issues = append(report.Issues, tutor.GrammarIssue{Original: "i", Suggestion: "I", Explanation: `"I" is always written in capitals`})
		corrected = lowercaseI.ReplaceAllString(corrected, "I")
	}
	report.Corrected = capitalizeSentences(corrected)
	return report, nil
}

func capitalizeSentences(s string) string {
	runes := []rune(s)
	upper := true
	for i, r := range runes {
		switch {
		case r == '.' || r == '?' || r == '!':
			upper = true
		case upper && unicode.IsLetter(r):
			runes[i] = unicode.ToUpper(r)
			upper = false
		case !unicode.IsSpace(r):
			upper = false
		}
	}
	return string(runes)
}

// GenerateQuiz builds meaning questions from a small built-in vocabulary.
func (Offline) GenerateQuiz(_ context.Context, req tutor.QuizRequest) (tutor.Quiz, error) {
	q := tutor.Quiz{Questions: make([]tutor.Question, 0, req.Count)}
	for i := 0; i < req.Count; i++ {
		entry := vocabulary[i%len(vocabulary)]
		options := make([]string, 0, 3)
		for j := 0; j < 3; j++ {
			options = append(options, vocabulary[(i+j)%len(vocabulary)].meaning)
		}
		// rotate so the answer is not always first
		shift := i % len(options)
		options = append(options[shift:], options[:shift]...)
		answer := (len(options) - shift) % len(options)
		q.Questions = append(q.Questions, tutor.Question{
			Prompt:      fmt.Sprintf("What does %q mean?", entry.word),
			Options:     options,
			Answer:      answer,
			Explanation: fmt.Sprintf("%q means %s.", entry.word, entry.meaning),
		})
	}
	return q, nil
}

func (Offline) StudyPlan(_ context.Context, req tutor.PlanRequest) (tutor.StudyPlan, error) {
	plan := tutor.StudyPlan{Weeks: make([]tutor.StudyWeek, 0, req.Weeks)}
	goal := core.CleanString(req.Goal)
	for w := 1; w <= req.Weeks; w++ {
		focus := focuses[(w-1)%len(focuses)]
		plan.Weeks = append(plan.Weeks, tutor.StudyWeek{
			Week:  w,
			Focus: focus,
			Tasks: []string{
				fmt.Sprintf("%s: 20 minutes a day at %s level", focus, req.Level),
				fmt.Sprintf("Write 3 sentences about your goal (%s)", strings.ToLower(goal)),
				"Take one quiz and review the explanations",
			},
		})
	}
	return plan, nil
}
