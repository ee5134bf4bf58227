package quiz

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// Attempt is an entry of the append-only quiz log. Attempts are never updated nor deleted.
type Attempt struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Mode           string    `json:"mode"`
	Level          string    `json:"level"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	XPEarned       int       `json:"xpEarned"`
	StudentID      string    `json:"studentId,omitempty"`
}

// NewAttempt contains the result of a finished quiz.
type NewAttempt struct {
	StudentID      string `json:"studentId"`
	Mode           string `json:"mode" validate:"required"`
	Level          string `json:"level"`
	Correct        int    `json:"correct" validate:"min=0,ltefield=TotalQuestions"`
	TotalQuestions int    `json:"totalQuestions" validate:"min=0"`
}

// Progress is the XP standing derived from the quiz log.
type Progress struct {
	TotalXP  int `json:"totalXp"`
	Attempts int `json:"attempts"`
	Level
}

type (
	Repository interface {
		Append(ctx context.Context, a Attempt) (Attempt, error)
		// List returns the attempts of studentID (every attempt when empty), in append order.
		List(ctx context.Context, studentID string) ([]Attempt, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Record computes the XP of a finished quiz and appends it to the log.
func (svc *Service) Record(ctx context.Context, na NewAttempt) (Attempt, error) {
	na.Mode = core.CleanString(na.Mode)
	na.Level = core.CleanString(na.Level)
	if err := svc.validate.Struct(na); err != nil {
		return Attempt{}, err
	}
	return svc.repo.Append(ctx, Attempt{
		ID:             core.NewID(),
		Date:           core.NowFunc(),
		Mode:           na.Mode,
		Level:          na.Level,
		Score:          na.Correct,
		TotalQuestions: na.TotalQuestions,
		XPEarned:       ComputeXP(na.Correct, na.TotalQuestions),
		StudentID:      na.StudentID,
	})
}

// Progress returns the XP standing of studentID (of every attempt when empty).
func (svc *Service) Progress(ctx context.Context, studentID string) (Progress, error) {
	attempts, err := svc.repo.List(ctx, studentID)
	if err != nil {
		return Progress{}, err
	}
	total := TotalXP(attempts)
	return Progress{TotalXP: total, Attempts: len(attempts), Level: ComputeLevel(total)}, nil
}

// Recent returns the last n attempts, most recent first. Recency is append order.
func (svc *Service) Recent(ctx context.Context, studentID string, n int) ([]Attempt, error) {
	attempts, err := svc.repo.List(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(attempts) {
		n = len(attempts)
	}
	res := make([]Attempt, 0, n)
	for i := len(attempts) - 1; i >= len(attempts)-n; i-- {
		res = append(res, attempts[i])
	}
	return res, nil
}
