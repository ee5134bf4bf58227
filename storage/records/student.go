package recordrepos

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func findStudent(students []student.Student, match func(student.Student) bool) (int, bool) {
	for i, s := range students {
		if match(s) {
			return i, true
		}
	}
	return -1, false
}

func activeEnrollment(enrollments []student.Enrollment, studentID, classID string) (int, bool) {
	for i, e := range enrollments {
		if e.Active && e.StudentID == studentID && e.ClassID == classID {
			return i, true
		}
	}
	return -1, false
}

func (repo *studentRepository) Enroll(ctx context.Context, s student.Student, password, classID string) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	students := repo.db.students(ctx)
	users := repo.db.users(ctx)

	if i, ok := findStudent(students, func(st student.Student) bool { return core.EqualFold(st.Email, s.Email) }); ok {
		s = students[i]
	} else {
		// a student user without its record gets one with the same ID
		if j, ok := findUser(users, byEmail(s.Email)); ok && users[j].IsStudent() {
			s.ID = users[j].ID
		}
		students = append(students, s)
		if err := core.Save(ctx, repo.db.rs, core.KeyStudents, students); err != nil {
			return student.Student{}, err
		}
	}

	if _, ok := findUser(users, func(u user.User) bool { return u.ID == s.ID }); !ok {
		users = append(users, user.User{
			ID:       s.ID,
			Name:     s.Name,
			Email:    s.Email,
			Role:     user.RoleStudent,
			Password: password,
		})
		if err := core.Save(ctx, repo.db.rs, core.KeyUsers, users); err != nil {
			return student.Student{}, err
		}
	}

	enrollments := repo.db.enrollments(ctx)
	if _, ok := activeEnrollment(enrollments, s.ID, classID); ok {
		return s, nil
	}
	enrollments = append(enrollments, student.Enrollment{ClassID: classID, StudentID: s.ID, Active: true})
	if err := core.Save(ctx, repo.db.rs, core.KeyEnrollments, enrollments); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) Transfer(ctx context.Context, studentID, fromClassID, toClassID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := findStudent(repo.db.students(ctx), func(s student.Student) bool { return s.ID == studentID }); !ok {
		return student.ErrNotFound
	}
	enrollments := repo.db.enrollments(ctx)
	i, ok := activeEnrollment(enrollments, studentID, fromClassID)
	if !ok {
		return student.ErrNotEnrolled
	}
	if _, ok = activeEnrollment(enrollments, studentID, toClassID); ok {
		return student.ErrAlreadyEnrolled
	}

	enrollments[i].Close(core.NowFunc())
	enrollments = append(enrollments, student.Enrollment{ClassID: toClassID, StudentID: studentID, Active: true})
	return core.Save(ctx, repo.db.rs, core.KeyEnrollments, enrollments)
}

func (repo *studentRepository) Unenroll(ctx context.Context, studentID, classID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enrollments := repo.db.enrollments(ctx)
	i, ok := activeEnrollment(enrollments, studentID, classID)
	if !ok {
		return student.ErrNotEnrolled
	}
	enrollments[i].Close(core.NowFunc())
	return core.Save(ctx, repo.db.rs, core.KeyEnrollments, enrollments)
}

func (repo *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := repo.db.students(ctx)
	if i, ok := findStudent(students, func(s student.Student) bool { return s.ID == id }); ok {
		return students[i], nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FindByEmail(ctx context.Context, email string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := repo.db.students(ctx)
	if i, ok := findStudent(students, func(s student.Student) bool { return core.EqualFold(s.Email, email) }); ok {
		return students[i], nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) List(ctx context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.students(ctx), nil
}

func (repo *studentRepository) ListByClass(ctx context.Context, classID string, activeOnly bool) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make(idSet)
	for _, e := range repo.db.enrollments(ctx) {
		if e.ClassID == classID && (e.Active || !activeOnly) {
			ids[e.StudentID] = struct{}{}
		}
	}
	return filter(repo.db.students(ctx), func(s student.Student) bool { return ids.has(s.ID) }), nil
}

func (repo *studentRepository) History(ctx context.Context, studentID string) ([]student.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return filter(repo.db.enrollments(ctx), func(e student.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (repo *studentRepository) Update(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	students := repo.db.students(ctx)
	i, ok := findStudent(students, func(st student.Student) bool { return st.ID == s.ID })
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	students[i] = s
	if err := core.Save(ctx, repo.db.rs, core.KeyStudents, students); err != nil {
		return student.Student{}, err
	}

	users := repo.db.users(ctx)
	if j, ok := findUser(users, func(u user.User) bool { return u.ID == s.ID }); ok {
		users[j].Name, users[j].Email = s.Name, s.Email
		if err := core.Save(ctx, repo.db.rs, core.KeyUsers, users); err != nil {
			return student.Student{}, err
		}
	}
	return s, nil
}

func (repo *studentRepository) Delete(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := findStudent(repo.db.students(ctx), func(s student.Student) bool { return s.ID == id }); !ok {
		return student.ErrNotFound
	}
	return repo.db.removeStudents(ctx, newIDSet(id))
}
