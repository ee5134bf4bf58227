package settings

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// MaxLogoSize bounds the branding logo payload (bytes).
const MaxLogoSize = 500 * 1024

var (
	// errors
	ErrLogoTooLarge = errors.Errorf("logo must not exceed %d KB", MaxLogoSize/1024)
	ErrNoLogo       = core.NewNotFoundError("no logo set")
)

// Settings is the system settings singleton.
type Settings struct {
	Logo           string     `json:"logo,omitempty"`
	LastBackup     *time.Time `json:"lastBackup"`
	LastAutoBackup *time.Time `json:"lastAutoBackup"`
}

type (
	Repository interface {
		Logo(ctx context.Context) (string, error)
		SetLogo(ctx context.Context, logo string) error
		RemoveLogo(ctx context.Context) error
		LastBackup(ctx context.Context) (*time.Time, error)
		LastAutoBackup(ctx context.Context) (*time.Time, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context) (Settings, error) {
	var s Settings
	var err error
	if s.Logo, err = svc.repo.Logo(ctx); err != nil && !errors.Is(err, ErrNoLogo) {
		return Settings{}, errors.Wrap(err, "getting logo")
	}
	if s.LastBackup, err = svc.repo.LastBackup(ctx); err != nil {
		return Settings{}, errors.Wrap(err, "getting backup timestamp")
	}
	if s.LastAutoBackup, err = svc.repo.LastAutoBackup(ctx); err != nil {
		return Settings{}, errors.Wrap(err, "getting auto backup timestamp")
	}
	return s, nil
}

func (svc *Service) Logo(ctx context.Context) (string, error) {
	return svc.repo.Logo(ctx)
}

// SetLogo stores the branding logo. Oversized payloads are rejected, never truncated.
func (svc *Service) SetLogo(ctx context.Context, logo string) error {
	if logo == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "logo", Error: "this field is required"})
	}
	if len(logo) > MaxLogoSize {
		return core.NewValidationError(ErrLogoTooLarge, core.FieldError{Field: "logo", Error: ErrLogoTooLarge.Error()})
	}
	return svc.repo.SetLogo(ctx, logo)
}

func (svc *Service) RemoveLogo(ctx context.Context) error {
	return svc.repo.RemoveLogo(ctx)
}
