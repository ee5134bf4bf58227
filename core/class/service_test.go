package class_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/user"
	"github.com/trezcool/escola/tests"
)

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	stu := testutil.CreateUser(t, env.UserRepo, "Bia", "bia@escola.cd", user.RoleStudent, "pwd")

	tests := []struct {
		name    string
		nc      class.NewClass
		wantErr func(error) bool
	}{
		{
			name: "valid",
			nc: class.NewClass{Name: " English A ", TeacherID: teacher.ID, Stages: []class.NewStage{
				{ID: "s1", Name: "1st stage", MaxPoints: 30},
				{Name: "2nd stage", MaxPoints: 40},
			}},
		},
		{name: "no stages", nc: class.NewClass{Name: "English B", TeacherID: teacher.ID}},
		{name: "blank name", nc: class.NewClass{Name: "  ", TeacherID: teacher.ID}, wantErr: core.IsValidationError},
		{name: "student teacher", nc: class.NewClass{Name: "X", TeacherID: stu.ID}, wantErr: core.IsValidationError},
		{name: "unknown teacher", nc: class.NewClass{Name: "X", TeacherID: "nope"}, wantErr: core.IsValidationError},
		{
			name: "duplicated stage ids",
			nc: class.NewClass{Name: "X", TeacherID: teacher.ID, Stages: []class.NewStage{
				{ID: "s1", Name: "a"}, {ID: "s1", Name: "b"},
			}},
			wantErr: func(err error) bool { return errors.Is(err, class.ErrDuplicateStage) },
		},
		{
			name:    "negative budget",
			nc:      class.NewClass{Name: "X", TeacherID: teacher.ID, Stages: []class.NewStage{{Name: "a", MaxPoints: -1}}},
			wantErr: core.IsValidationError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.ClassSvc.Create(ctx, tt.nc)
			if tt.wantErr != nil {
				if assert.Error(t, err) {
					assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, c.ID)
			assert.Equal(t, core.CleanString(tt.nc.Name), c.Name)
			assert.Len(t, c.Stages, len(tt.nc.Stages))
			for _, s := range c.Stages {
				assert.NotEmpty(t, s.ID)
			}
		})
	}

	classes, err := env.ClassSvc.ListByTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	rui := testutil.CreateUser(t, env.UserRepo, "Rui", "rui@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, ana.ID, "English A", 30)

	level := "B1"
	got, err := env.ClassSvc.Update(ctx, c.ID, class.UpdateClass{Level: &level, TeacherID: rui.ID})
	require.NoError(t, err)
	assert.Equal(t, "English A", got.Name)
	assert.Equal(t, "B1", got.Level)
	assert.Equal(t, c.Schedule, got.Schedule)
	assert.Equal(t, rui.ID, got.TeacherID)
	assert.Equal(t, c.Stages, got.Stages)

	_, err = env.ClassSvc.Update(ctx, "nope", class.UpdateClass{Name: "X"})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Stages(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, teacher.ID, "English A", 30)

	c, err := env.ClassSvc.AddStage(ctx, c.ID, class.NewStage{Name: "Final", MaxPoints: 40})
	require.NoError(t, err)
	require.Len(t, c.Stages, 2)
	final := c.Stages[1]
	assert.Equal(t, "Final", final.Name)

	_, err = env.ClassSvc.AddStage(ctx, c.ID, class.NewStage{ID: "s1", Name: "Again"})
	assert.True(t, errors.Is(err, class.ErrDuplicateStage))

	pts := 50
	c, err = env.ClassSvc.UpdateStage(ctx, c.ID, final.ID, class.UpdateStage{MaxPoints: &pts})
	require.NoError(t, err)
	assert.Equal(t, class.StageConfig{ID: final.ID, Name: "Final", MaxPoints: 50}, c.Stages[1])

	_, err = env.ClassSvc.UpdateStage(ctx, c.ID, "nope", class.UpdateStage{Name: "X"})
	assert.True(t, errors.Is(err, class.ErrStageNotFound))

	require.NoError(t, env.ClassSvc.RemoveStage(ctx, c.ID, "s1"))
	c, err = env.ClassSvc.Get(ctx, c.ID)
	require.NoError(t, err)
	if assert.Len(t, c.Stages, 1) {
		assert.Equal(t, final.ID, c.Stages[0].ID)
	}
	assert.True(t, errors.Is(env.ClassSvc.RemoveStage(ctx, c.ID, "s1"), class.ErrStageNotFound))
}

func TestService_ConcurrentAddStage(t *testing.T) {
	env := testutil.NewSlowEnv(t, time.Millisecond)
	ctx := context.Background()
	teacher := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, teacher.ID, "A", 10)

	var (
		wg         sync.WaitGroup
		duplicates int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := env.ClassSvc.AddStage(ctx, c.ID, class.NewStage{ID: fmt.Sprintf("t%d", i), Name: "Term", MaxPoints: 10})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_, err := env.ClassSvc.AddStage(ctx, c.ID, class.NewStage{ID: "exam", Name: "Exam", MaxPoints: 10})
			if err != nil {
				assert.True(t, errors.Is(err, class.ErrDuplicateStage))
				atomic.AddInt32(&duplicates, 1)
			}
		}()
	}
	wg.Wait()

	got, err := env.ClassSvc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stages, 12)
	assert.Equal(t, int32(9), duplicates)
}

func TestService_Delete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, teacher.ID, "English A", 30)

	require.NoError(t, env.ClassSvc.Delete(ctx, c.ID))
	_, err := env.ClassSvc.Get(ctx, c.ID)
	assert.True(t, errors.Is(err, class.ErrNotFound))
	assert.True(t, core.IsNotFound(env.ClassSvc.Delete(ctx, c.ID)))
}
