package recordrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/settings"
)

type settingsRepository struct {
	db *DB
}

var _ settings.Repository = (*settingsRepository)(nil)

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) Logo(ctx context.Context) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var logo string
	if !repo.db.rs.GetValue(ctx, core.KeyLogo, &logo) || logo == "" {
		return "", settings.ErrNoLogo
	}
	return logo, nil
}

func (repo *settingsRepository) SetLogo(ctx context.Context, logo string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if !repo.db.rs.SetValue(ctx, core.KeyLogo, logo) {
		return errors.Wrap(core.ErrStorageFull, "saving logo")
	}
	return nil
}

func (repo *settingsRepository) RemoveLogo(ctx context.Context) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if !repo.db.rs.Remove(ctx, core.KeyLogo) {
		return errors.New("removing logo")
	}
	return nil
}

func (repo *settingsRepository) timestamp(ctx context.Context, key string) *time.Time {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var t time.Time
	if !repo.db.rs.GetValue(ctx, key, &t) {
		return nil
	}
	return &t
}

func (repo *settingsRepository) LastBackup(ctx context.Context) (*time.Time, error) {
	return repo.timestamp(ctx, core.KeyBackupTimestamp), nil
}

func (repo *settingsRepository) LastAutoBackup(ctx context.Context) (*time.Time, error) {
	return repo.timestamp(ctx, core.KeyAutoBackupTimestamp), nil
}
