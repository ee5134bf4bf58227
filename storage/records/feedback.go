package recordrepos

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/feedback"
)

type feedbackRepository struct {
	db *DB
}

var _ feedback.Repository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) Save(ctx context.Context, f feedback.Feedback) (feedback.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	fbs := filter(repo.db.feedbacks(ctx), func(old feedback.Feedback) bool { return !old.SameKey(f) })
	fbs = append(fbs, f)
	if err := core.Save(ctx, repo.db.rs, core.KeyFeedbacks, fbs); err != nil {
		return feedback.Feedback{}, err
	}
	return f, nil
}

func (repo *feedbackRepository) Get(ctx context.Context, studentID, classID, stageID string) (feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	key := feedback.Feedback{StudentID: studentID, ClassID: classID, StageID: stageID}
	for _, f := range repo.db.feedbacks(ctx) {
		if f.SameKey(key) {
			return f, nil
		}
	}
	return feedback.Feedback{}, feedback.ErrNotFound
}

func (repo *feedbackRepository) ListByClass(ctx context.Context, classID string) ([]feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return filter(repo.db.feedbacks(ctx), func(f feedback.Feedback) bool { return f.ClassID == classID }), nil
}

func (repo *feedbackRepository) ListByStudent(ctx context.Context, studentID string) ([]feedback.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return filter(repo.db.feedbacks(ctx), func(f feedback.Feedback) bool { return f.StudentID == studentID }), nil
}

func (repo *feedbackRepository) Delete(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	fbs := repo.db.feedbacks(ctx)
	kept := filter(fbs, func(f feedback.Feedback) bool { return f.ID != id })
	if len(kept) == len(fbs) {
		return feedback.ErrNotFound
	}
	return core.Save(ctx, repo.db.rs, core.KeyFeedbacks, kept)
}
