// Package recordrepos implements the domain repositories on top of the Record Store.
// Every operation reads whole collections, filters them and writes them back.
package recordrepos

import (
	"context"
	"sync"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/quiz"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

// DB is shared by the repositories of one process.
// Its mutex serializes read-modify-write cycles within the process only: two DBs
// over the same backend do not coordinate, and the last collection write wins.
type DB struct {
	rs    *core.Records
	mutex sync.RWMutex
}

func NewDB(rs *core.Records) *DB {
	return &DB{rs: rs}
}

func (db *DB) users(ctx context.Context) []user.User {
	return core.GetCollection[user.User](ctx, db.rs, core.KeyUsers)
}

func (db *DB) classes(ctx context.Context) []class.ClassGroup {
	return core.GetCollection[class.ClassGroup](ctx, db.rs, core.KeyClasses)
}

func (db *DB) students(ctx context.Context) []student.Student {
	return core.GetCollection[student.Student](ctx, db.rs, core.KeyStudents)
}

func (db *DB) enrollments(ctx context.Context) []student.Enrollment {
	return core.GetCollection[student.Enrollment](ctx, db.rs, core.KeyEnrollments)
}

func (db *DB) activities(ctx context.Context) []grading.Activity {
	return core.GetCollection[grading.Activity](ctx, db.rs, core.KeyActivities)
}

func (db *DB) grades(ctx context.Context) []grading.Grade {
	return core.GetCollection[grading.Grade](ctx, db.rs, core.KeyGrades)
}

func (db *DB) feedbacks(ctx context.Context) []feedback.Feedback {
	return core.GetCollection[feedback.Feedback](ctx, db.rs, core.KeyFeedbacks)
}

func (db *DB) attempts(ctx context.Context) []quiz.Attempt {
	return core.GetCollection[quiz.Attempt](ctx, db.rs, core.KeyQuizAttempts)
}

// filter returns the items for which keep is true, preserving order.
func filter[T any](items []T, keep func(T) bool) []T {
	res := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			res = append(res, it)
		}
	}
	return res
}

type idSet map[string]struct{}

func newIDSet(ids ...string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// removeActivities deletes the dropped activities together with their grades.
func (db *DB) removeActivities(ctx context.Context, drop func(grading.Activity) bool) error {
	acts := db.activities(ctx)
	dropped := make(idSet)
	kept := filter(acts, func(a grading.Activity) bool {
		if drop(a) {
			dropped[a.ID] = struct{}{}
			return false
		}
		return true
	})
	if len(dropped) == 0 {
		return nil
	}
	if err := core.Save(ctx, db.rs, core.KeyActivities, kept); err != nil {
		return err
	}
	grades := db.grades(ctx)
	return core.Save(ctx, db.rs, core.KeyGrades, filter(grades, func(g grading.Grade) bool {
		return !dropped.has(g.ActivityID)
	}))
}

func (db *DB) removeFeedbacks(ctx context.Context, drop func(feedback.Feedback) bool) error {
	fbs := db.feedbacks(ctx)
	kept := filter(fbs, func(f feedback.Feedback) bool { return !drop(f) })
	if len(kept) == len(fbs) {
		return nil
	}
	return core.Save(ctx, db.rs, core.KeyFeedbacks, kept)
}

// removeStudents deletes the students with their users, enrollments, grades and feedback.
func (db *DB) removeStudents(ctx context.Context, ids idSet) error {
	if len(ids) == 0 {
		return nil
	}
	steps := []func() error{
		func() error {
			return core.Save(ctx, db.rs, core.KeyStudents, filter(db.students(ctx), func(s student.Student) bool {
				return !ids.has(s.ID)
			}))
		},
		func() error {
			return core.Save(ctx, db.rs, core.KeyUsers, filter(db.users(ctx), func(u user.User) bool {
				return !(ids.has(u.ID) && u.IsStudent())
			}))
		},
		func() error {
			return core.Save(ctx, db.rs, core.KeyEnrollments, filter(db.enrollments(ctx), func(e student.Enrollment) bool {
				return !ids.has(e.StudentID)
			}))
		},
		func() error {
			return core.Save(ctx, db.rs, core.KeyGrades, filter(db.grades(ctx), func(g grading.Grade) bool {
				return !ids.has(g.StudentID)
			}))
		},
		func() error {
			return db.removeFeedbacks(ctx, func(f feedback.Feedback) bool { return ids.has(f.StudentID) })
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
