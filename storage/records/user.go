package recordrepos

import (
	"context"
	"strings"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func findUser(users []user.User, match func(user.User) bool) (int, bool) {
	for i, u := range users {
		if match(u) {
			return i, true
		}
	}
	return -1, false
}

func byEmail(email string) func(user.User) bool {
	return func(u user.User) bool { return core.EqualFold(u.Email, email) }
}

func (repo *userRepository) Add(ctx context.Context, usr user.User) (user.User, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	users := repo.db.users(ctx)
	if i, ok := findUser(users, byEmail(usr.Email)); ok {
		return users[i], false, nil
	}
	users = append(users, usr)
	if err := core.Save(ctx, repo.db.rs, core.KeyUsers, users); err != nil {
		return user.User{}, false, err
	}
	return usr, true, nil
}

func (repo *userRepository) List(ctx context.Context) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.users(ctx), nil
}

func (repo *userRepository) Filter(ctx context.Context, f user.QueryFilter) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return filter(repo.db.users(ctx), func(u user.User) bool {
		if f.Role != "" && u.Role != f.Role {
			return false
		}
		if f.Search != "" {
			return strings.Contains(strings.ToLower(u.Name), f.Search) ||
				strings.Contains(strings.ToLower(u.Email), f.Search)
		}
		return true
	}), nil
}

func (repo *userRepository) Get(ctx context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := repo.db.users(ctx)
	if i, ok := findUser(users, func(u user.User) bool { return u.ID == id }); ok {
		return users[i], nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Find(ctx context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := repo.db.users(ctx)
	if i, ok := findUser(users, byEmail(email)); ok {
		return users[i], nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Update(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	users := repo.db.users(ctx)
	i, ok := findUser(users, func(u user.User) bool { return u.ID == usr.ID })
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	users[i] = usr
	if err := core.Save(ctx, repo.db.rs, core.KeyUsers, users); err != nil {
		return user.User{}, err
	}

	if usr.IsStudent() {
		// the student record shares its id, name and email with its user
		students := repo.db.students(ctx)
		if j, ok := findStudent(students, func(s student.Student) bool { return s.ID == usr.ID }); ok {
			students[j].Name, students[j].Email = usr.Name, usr.Email
			if err := core.Save(ctx, repo.db.rs, core.KeyStudents, students); err != nil {
				return user.User{}, err
			}
		}
	}
	return usr, nil
}

func (repo *userRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	set := newIDSet(ids...)
	users := repo.db.users(ctx)
	kept := filter(users, func(u user.User) bool { return !set.has(u.ID) })
	if len(kept) == len(users) {
		return nil
	}
	return core.Save(ctx, repo.db.rs, core.KeyUsers, kept)
}

func (repo *userRepository) SeedAdmin(ctx context.Context, admin user.User) (user.User, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	users := repo.db.users(ctx)
	var seeded bool
	if repo.db.rs.GetValue(ctx, core.KeyAdminSeeded, &seeded) && seeded {
		if i, ok := findUser(users, func(u user.User) bool { return u.ID == admin.ID }); ok {
			return users[i], false, nil
		}
		// deleted after seeding: never re-created
		return user.User{}, false, nil
	}

	if i, ok := findUser(users, byEmail(admin.Email)); ok {
		repo.db.rs.SetValue(ctx, core.KeyAdminSeeded, true)
		return users[i], false, nil
	}

	users = append(users, admin)
	if err := core.Save(ctx, repo.db.rs, core.KeyUsers, users); err != nil {
		return user.User{}, false, err
	}
	// best effort: the admin email check prevents a duplicate anyway
	repo.db.rs.SetValue(ctx, core.KeyAdminSeeded, true)
	return admin, true, nil
}
