package recordrepos

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) Append(ctx context.Context, a quiz.Attempt) (quiz.Attempt, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	attempts := append(repo.db.attempts(ctx), a)
	if err := core.Save(ctx, repo.db.rs, core.KeyQuizAttempts, attempts); err != nil {
		return quiz.Attempt{}, err
	}
	return a, nil
}

func (repo *quizRepository) List(ctx context.Context, studentID string) ([]quiz.Attempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	attempts := repo.db.attempts(ctx)
	if studentID == "" {
		return attempts, nil
	}
	return filter(attempts, func(a quiz.Attempt) bool { return a.StudentID == studentID }), nil
}
