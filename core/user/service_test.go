package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/user"
	"github.com/trezcool/escola/tests"
)

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr bool
	}{
		{
			name: "valid",
			nu:   user.NewUser{Name: " Bob ", Email: "Bob@Escola.cd", Role: "Teacher", Password: "x", PasswordConfirm: "x"},
		},
		{
			name:    "email taken",
			nu:      user.NewUser{Name: "Ana 2", Email: "ANA@escola.cd", Role: user.RoleAdmin, Password: "x", PasswordConfirm: "x"},
			wantErr: true,
		},
		{
			name:    "student role",
			nu:      user.NewUser{Name: "Caio", Email: "caio@escola.cd", Role: user.RoleStudent, Password: "x", PasswordConfirm: "x"},
			wantErr: true,
		},
		{
			name:    "password mismatch",
			nu:      user.NewUser{Name: "Dan", Email: "dan@escola.cd", Role: user.RoleAdmin, Password: "x", PasswordConfirm: "y"},
			wantErr: true,
		},
		{
			name:    "bad email",
			nu:      user.NewUser{Name: "Eva", Email: "eva", Role: user.RoleAdmin, Password: "x", PasswordConfirm: "x"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := env.UserSvc.Create(ctx, tt.nu)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Bob", usr.Name)
			assert.Equal(t, "bob@escola.cd", usr.Email)
			assert.Equal(t, user.RoleTeacher, usr.Role)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "secret")

	usr, err := env.UserSvc.Authenticate(ctx, " ANA@escola.cd", "secret")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, usr.ID)

	_, err = env.UserSvc.Authenticate(ctx, "ana@escola.cd", "Secret")
	assert.True(t, errors.Is(err, user.ErrInvalidCredentials))
	_, err = env.UserSvc.Authenticate(ctx, "nobody@escola.cd", "secret")
	assert.True(t, errors.Is(err, user.ErrInvalidCredentials))
}

func TestService_SeedAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	usr, created, err := env.UserSvc.SeedAdmin(ctx, env.Conf.Admin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, user.SeedAdminID, usr.ID)
	assert.True(t, usr.IsAdmin())

	_, created, err = env.UserSvc.SeedAdmin(ctx, env.Conf.Admin)
	require.NoError(t, err)
	assert.False(t, created)

	users, _ := env.UserSvc.List(ctx)
	assert.Len(t, users, 1)

	err = env.UserSvc.Delete(ctx, user.SeedAdminID)
	assert.True(t, errors.Is(err, user.ErrSeedAdminProtected))
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	testutil.CreateUser(t, env.UserRepo, "Bob", "bob@escola.cd", user.RoleTeacher, "pwd")

	usr, err := env.UserSvc.Update(ctx, ana.ID, user.UpdateUser{Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", usr.Name)
	assert.Equal(t, "ana@escola.cd", usr.Email)
	assert.Equal(t, "pwd", usr.Password)

	_, err = env.UserSvc.Update(ctx, ana.ID, user.UpdateUser{Email: "BOB@escola.cd"})
	assert.True(t, errors.Is(err, user.ErrEmailExists))

	usr, err = env.UserSvc.ResetPassword(ctx, "ana@escola.cd", "new")
	require.NoError(t, err)
	assert.True(t, usr.CheckPassword("new"))

	_, err = env.UserSvc.Update(ctx, "nope", user.UpdateUser{Name: "X"})
	assert.True(t, core.IsNotFound(err))
}

func TestService_UpdateStudentAccount(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, ana.ID, "A", 30)
	bia := testutil.EnrollStudent(t, env.StudentSvc, c.ID, "Bia", "bia@escola.cd")

	_, err := env.UserSvc.Update(ctx, bia.ID, user.UpdateUser{Name: "Beatriz", Email: "beatriz@escola.cd"})
	require.NoError(t, err)

	s, err := env.StudentSvc.Get(ctx, bia.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beatriz", s.Name)
	assert.Equal(t, "beatriz@escola.cd", s.Email)

	_, err = env.UserSvc.Update(ctx, ana.ID, user.UpdateUser{Name: "Ana Maria"})
	require.NoError(t, err)
	s, err = env.StudentSvc.Get(ctx, bia.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beatriz", s.Name)
}

func TestService_Delete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, ana.ID, "A", 30)
	s := testutil.EnrollStudent(t, env.StudentSvc, c.ID, "Bia", "bia@escola.cd")

	err := env.UserSvc.Delete(ctx, s.ID)
	assert.True(t, errors.Is(err, user.ErrStudentAccount))

	require.NoError(t, env.UserSvc.Delete(ctx, ana.ID, "unknown"))
	_, err = env.UserSvc.Get(ctx, ana.ID)
	assert.True(t, core.IsNotFound(err))
}
