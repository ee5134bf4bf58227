package recordrepos

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/grading"
)

type gradingRepository struct {
	db *DB
}

var _ grading.Repository = (*gradingRepository)(nil)

func NewGradingRepository(db *DB) grading.Repository {
	return &gradingRepository{db: db}
}

func findActivity(acts []grading.Activity, id string) (int, bool) {
	for i, a := range acts {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (repo *gradingRepository) AddActivity(ctx context.Context, a grading.Activity, check grading.ActivityCheck) (grading.Activity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	classes := repo.db.classes(ctx)
	ci, ok := findClass(classes, a.ClassID)
	if !ok {
		return grading.Activity{}, class.ErrNotFound
	}
	acts := repo.db.activities(ctx)
	if check != nil {
		classActs := filter(acts, func(o grading.Activity) bool { return o.ClassID == a.ClassID })
		if err := check(classes[ci], classActs); err != nil {
			return grading.Activity{}, err
		}
	}

	if err := core.Save(ctx, repo.db.rs, core.KeyActivities, append(acts, a)); err != nil {
		return grading.Activity{}, err
	}
	return a, nil
}

func (repo *gradingRepository) ModifyActivity(ctx context.Context, id string, fn func(c class.ClassGroup, a *grading.Activity, classActs []grading.Activity) error) (grading.Activity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	acts := repo.db.activities(ctx)
	i, ok := findActivity(acts, id)
	if !ok {
		return grading.Activity{}, grading.ErrActivityNotFound
	}
	a := acts[i]
	classes := repo.db.classes(ctx)
	ci, ok := findClass(classes, a.ClassID)
	if !ok {
		return grading.Activity{}, class.ErrNotFound
	}
	classActs := filter(acts, func(o grading.Activity) bool { return o.ClassID == a.ClassID })
	if err := fn(classes[ci], &a, classActs); err != nil {
		return grading.Activity{}, err
	}

	a.ID, a.ClassID = acts[i].ID, acts[i].ClassID
	acts[i] = a
	if err := core.Save(ctx, repo.db.rs, core.KeyActivities, acts); err != nil {
		return grading.Activity{}, err
	}
	return a, nil
}

func (repo *gradingRepository) GetActivity(ctx context.Context, id string) (grading.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	acts := repo.db.activities(ctx)
	if i, ok := findActivity(acts, id); ok {
		return acts[i], nil
	}
	return grading.Activity{}, grading.ErrActivityNotFound
}

func (repo *gradingRepository) ListActivities(ctx context.Context, classID string) ([]grading.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	acts := repo.db.activities(ctx)
	if classID == "" {
		return acts, nil
	}
	return filter(acts, func(a grading.Activity) bool { return a.ClassID == classID }), nil
}

func (repo *gradingRepository) DeleteActivity(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := findActivity(repo.db.activities(ctx), id); !ok {
		return grading.ErrActivityNotFound
	}
	return repo.db.removeActivities(ctx, func(a grading.Activity) bool { return a.ID == id })
}

func (repo *gradingRepository) SetGrade(ctx context.Context, g grading.Grade) (grading.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grades := repo.db.grades(ctx)
	found := false
	for i := range grades {
		if grades[i].ActivityID == g.ActivityID && grades[i].StudentID == g.StudentID {
			grades[i].Value = g.Value
			found = true
			break
		}
	}
	if !found {
		grades = append(grades, g)
	}
	if err := core.Save(ctx, repo.db.rs, core.KeyGrades, grades); err != nil {
		return grading.Grade{}, err
	}
	return g, nil
}

func (repo *gradingRepository) DeleteGrade(ctx context.Context, activityID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grades := repo.db.grades(ctx)
	kept := filter(grades, func(g grading.Grade) bool {
		return !(g.ActivityID == activityID && g.StudentID == studentID)
	})
	if len(kept) == len(grades) {
		return nil
	}
	return core.Save(ctx, repo.db.rs, core.KeyGrades, kept)
}

func (repo *gradingRepository) ListGrades(ctx context.Context, activityIDs ...string) ([]grading.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := repo.db.grades(ctx)
	if len(activityIDs) == 0 {
		return grades, nil
	}
	set := newIDSet(activityIDs...)
	return filter(grades, func(g grading.Grade) bool { return set.has(g.ActivityID) }), nil
}
