package recordrepos

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/student"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func findClass(classes []class.ClassGroup, id string) (int, bool) {
	for i, c := range classes {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (repo *classRepository) Create(ctx context.Context, c class.ClassGroup) (class.ClassGroup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if c.Stages == nil {
		c.Stages = []class.StageConfig{}
	}
	classes := append(repo.db.classes(ctx), c)
	if err := core.Save(ctx, repo.db.rs, core.KeyClasses, classes); err != nil {
		return class.ClassGroup{}, err
	}
	return c, nil
}

func (repo *classRepository) Modify(ctx context.Context, id string, fn func(c *class.ClassGroup) error) (class.ClassGroup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	classes := repo.db.classes(ctx)
	i, ok := findClass(classes, id)
	if !ok {
		return class.ClassGroup{}, class.ErrNotFound
	}
	c := classes[i]
	if err := fn(&c); err != nil {
		return class.ClassGroup{}, err
	}
	c.ID = id
	classes[i] = c
	if err := core.Save(ctx, repo.db.rs, core.KeyClasses, classes); err != nil {
		return class.ClassGroup{}, err
	}
	return c, nil
}

func (repo *classRepository) Get(ctx context.Context, id string) (class.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := repo.db.classes(ctx)
	if i, ok := findClass(classes, id); ok {
		return classes[i], nil
	}
	return class.ClassGroup{}, class.ErrNotFound
}

func (repo *classRepository) FindByName(ctx context.Context, name string) (class.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.classes(ctx) {
		if core.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return class.ClassGroup{}, class.ErrNotFound
}

func (repo *classRepository) List(ctx context.Context) ([]class.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.classes(ctx), nil
}

func (repo *classRepository) ListByTeacher(ctx context.Context, teacherID string) ([]class.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return filter(repo.db.classes(ctx), func(c class.ClassGroup) bool { return c.TeacherID == teacherID }), nil
}

func (repo *classRepository) RemoveStage(ctx context.Context, classID, stageID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	classes := repo.db.classes(ctx)
	i, ok := findClass(classes, classID)
	if !ok {
		return class.ErrNotFound
	}
	stages := filter(classes[i].Stages, func(s class.StageConfig) bool { return s.ID != stageID })
	if len(stages) == len(classes[i].Stages) {
		return class.ErrStageNotFound
	}
	classes[i].Stages = stages
	if err := core.Save(ctx, repo.db.rs, core.KeyClasses, classes); err != nil {
		return err
	}

	if err := repo.db.removeActivities(ctx, func(a grading.Activity) bool {
		return a.ClassID == classID && a.StageID == stageID
	}); err != nil {
		return err
	}
	return repo.db.removeFeedbacks(ctx, func(f feedback.Feedback) bool {
		return f.ClassID == classID && f.StageID == stageID
	})
}

func (repo *classRepository) Delete(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	classes := repo.db.classes(ctx)
	i, ok := findClass(classes, id)
	if !ok {
		return class.ErrNotFound
	}

	// students solely reachable through this class, computed before anything is removed
	enrolled, elsewhere := make(idSet), make(idSet)
	enrollments := repo.db.enrollments(ctx)
	for _, e := range enrollments {
		if e.ClassID == id {
			enrolled[e.StudentID] = struct{}{}
		} else {
			elsewhere[e.StudentID] = struct{}{}
		}
	}
	orphans := make(idSet)
	for sid := range enrolled {
		if !elsewhere.has(sid) {
			orphans[sid] = struct{}{}
		}
	}

	classes = append(classes[:i], classes[i+1:]...)
	if err := core.Save(ctx, repo.db.rs, core.KeyClasses, classes); err != nil {
		return err
	}
	if err := core.Save(ctx, repo.db.rs, core.KeyEnrollments, filter(enrollments, func(e student.Enrollment) bool {
		return e.ClassID != id
	})); err != nil {
		return err
	}
	if err := repo.db.removeActivities(ctx, func(a grading.Activity) bool { return a.ClassID == id }); err != nil {
		return err
	}
	if err := repo.db.removeFeedbacks(ctx, func(f feedback.Feedback) bool { return f.ClassID == id }); err != nil {
		return err
	}
	return repo.db.removeStudents(ctx, orphans)
}
