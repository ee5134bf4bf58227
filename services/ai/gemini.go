package aisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/tutor"
)

// ErrMalformedAnswer is returned when the model does not answer with the requested JSON.
var ErrMalformedAnswer = errors.New("assistant returned a malformed answer")

const tutorPersona = "You are a patient English teacher helping adult learners. " +
	"Answer in simple English adapted to the learner's level."

// Gemini is a tutor.Assistant backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger core.Logger
}

var _ tutor.Assistant = (*Gemini)(nil)

func NewGemini(ctx context.Context, conf core.AIConfig, logger core.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(conf.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	model := client.GenerativeModel(conf.Model)
	model.SetTemperature(0.4)
	return &Gemini{client: client, model: model, logger: logger}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Chat(ctx context.Context, history []tutor.Message, prompt string) (string, error) {
	cs := g.model.StartChat()
	cs.History = append(cs.History, &genai.Content{Role: tutor.RoleUser, Parts: []genai.Part{genai.Text(tutorPersona)}})
	cs.History = append(cs.History, &genai.Content{Role: tutor.RoleModel, Parts: []genai.Part{genai.Text("Understood.")}})
	for _, m := range history {
		cs.History = append(cs.History, &genai.Content{Role: m.Role, Parts: []genai.Part{genai.Text(m.Text)}})
	}
	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", errors.Wrap(err, "sending chat message")
	}
	return responseText(resp), nil
}

func (g *Gemini) CheckGrammar(ctx context.Context, text string) (tutor.GrammarReport, error) {
	prompt := fmt.Sprintf(`%s
Correct the grammar of the text below. Answer with JSON only, in this shape:
{"corrected": "...", "issues": [{"original": "...", "suggestion": "...", "explanation": "..."}]}
Keep the meaning and the wording unless they are wrong.

Text:
%s`, tutorPersona, text)

	var report tutor.GrammarReport
	if err := g.generateJSON(ctx, prompt, &report); err != nil {
		return tutor.GrammarReport{}, err
	}
	return report, nil
}

func (g *Gemini) GenerateQuiz(ctx context.Context, req tutor.QuizRequest) (tutor.Quiz, error) {
	prompt := fmt.Sprintf(`%s
Write a %s quiz of %d multiple choice questions about %q for a %s learner.
Answer with JSON only, in this shape:
{"questions": [{"prompt": "...", "options": ["...", "...", "...", "..."], "answer": 0, "explanation": "..."}]}
"answer" is the index of the correct option.`, tutorPersona, req.Mode, req.Count, req.Topic, req.Level)

	var q tutor.Quiz
	if err := g.generateJSON(ctx, prompt, &q); err != nil {
		return tutor.Quiz{}, err
	}
	for _, qst := range q.Questions {
		if qst.Answer < 0 || qst.Answer >= len(qst.Options) {
			return tutor.Quiz{}, errors.Wrap(ErrMalformedAnswer, "answer index out of range")
		}
	}
	return q, nil
}

func (g *Gemini) StudyPlan(ctx context.Context, req tutor.PlanRequest) (tutor.StudyPlan, error) {
	prompt := fmt.Sprintf(`%s
Write a %d week study plan for a %s learner whose goal is: %s.
Answer with JSON only, in this shape:
{"weeks": [{"week": 1, "focus": "...", "tasks": ["...", "..."]}]}`, tutorPersona, req.Weeks, req.Level, req.Goal)

	var plan tutor.StudyPlan
	if err := g.generateJSON(ctx, prompt, &plan); err != nil {
		return tutor.StudyPlan{}, err
	}
	return plan, nil
}

func (g *Gemini) generateJSON(ctx context.Context, prompt string, dst interface{}) error {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return errors.Wrap(err, "generating content")
	}
	text := responseText(resp)
	raw := extractJSON(text)
	if raw == "" {
		g.logger.Warn("no JSON in assistant answer", map[string]interface{}{"answer": text})
		return ErrMalformedAnswer
	}
	if err = json.Unmarshal([]byte(raw), dst); err != nil {
		g.logger.Warn("undecodable assistant answer", map[string]interface{}{"answer": raw})
		return errors.Wrap(ErrMalformedAnswer, err.Error())
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		break // first candidate only
	}
	return sb.String()
}

// extractJSON returns the outermost JSON object of s, dropping markdown fences and prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
