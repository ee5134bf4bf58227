package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/quiz"
	"github.com/trezcool/escola/core/roster"
	"github.com/trezcool/escola/core/settings"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
	logsvc "github.com/trezcool/escola/services/logger"
	"github.com/trezcool/escola/storage/kv"
	recordrepos "github.com/trezcool/escola/storage/records"
)

// Env wires every repository and service over an in-memory Record Store.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	KV         *kv.MemoryStore
	Records    *core.Records
	DB         *recordrepos.DB
	Validate   *validator.Validate
	Translator ut.Translator

	UserRepo     user.Repository
	ClassRepo    class.Repository
	StudentRepo  student.Repository
	GradingRepo  grading.Repository
	FeedbackRepo feedback.Repository
	QuizRepo     quiz.Repository
	SettingsRepo settings.Repository

	UserSvc     *user.Service
	ClassSvc    *class.Service
	StudentSvc  *student.Service
	GradingSvc  *grading.Service
	FeedbackSvc *feedback.Service
	QuizSvc     *quiz.Service
	SettingsSvc *settings.Service
	BackupSvc   *backup.Service
	RosterSvc   *roster.Service
}

// NewLogger returns a logger printing nowhere and reporting nothing.
func NewLogger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	l.Enable(false)
	return l
}

// NewValidator returns a validator with every custom tag registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	feedback.InitValidators(validate, translator)
	return validate, translator
}

// NewEnv builds an isolated environment; quota applies to the in-memory backend.
func NewEnv(t *testing.T, quota ...int64) *Env {
	t.Helper()

	var q int64
	if len(quota) > 0 {
		q = quota[0]
	}
	return newEnv(kv.NewMemoryStore(q), 0)
}

// SlowStore delays every Load of the wrapped store.
type SlowStore struct {
	*kv.MemoryStore
	Delay time.Duration
}

func (s SlowStore) Load(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(s.Delay)
	return s.MemoryStore.Load(ctx, key)
}

// NewSlowEnv is like NewEnv, but every read of the backend takes delay.
func NewSlowEnv(t *testing.T, delay time.Duration) *Env {
	t.Helper()
	return newEnv(kv.NewMemoryStore(0), delay)
}

func newEnv(mem *kv.MemoryStore, delay time.Duration) *Env {
	conf := core.NewTestConfig()
	env := &Env{
		Conf:   conf,
		Logger: NewLogger(conf),
		KV:     mem,
	}
	var store core.KVStore = mem
	if delay > 0 {
		store = SlowStore{MemoryStore: mem, Delay: delay}
	}
	env.Validate, env.Translator = NewValidator()
	env.Records = core.NewRecords(store, env.Logger)
	env.DB = recordrepos.NewDB(env.Records)

	env.UserRepo = recordrepos.NewUserRepository(env.DB)
	env.ClassRepo = recordrepos.NewClassRepository(env.DB)
	env.StudentRepo = recordrepos.NewStudentRepository(env.DB)
	env.GradingRepo = recordrepos.NewGradingRepository(env.DB)
	env.FeedbackRepo = recordrepos.NewFeedbackRepository(env.DB)
	env.QuizRepo = recordrepos.NewQuizRepository(env.DB)
	env.SettingsRepo = recordrepos.NewSettingsRepository(env.DB)

	env.UserSvc = user.NewService(env.UserRepo, env.Validate)
	env.ClassSvc = class.NewService(env.ClassRepo, env.UserRepo, env.Validate)
	env.StudentSvc = student.NewService(env.StudentRepo, env.ClassRepo, env.UserRepo, env.Validate)
	env.GradingSvc = grading.NewService(env.GradingRepo, env.ClassRepo, env.StudentRepo, env.Validate)
	env.FeedbackSvc = feedback.NewService(env.FeedbackRepo, env.ClassRepo, env.StudentRepo, env.Validate)
	env.QuizSvc = quiz.NewService(env.QuizRepo, env.Validate)
	env.SettingsSvc = settings.NewService(env.SettingsRepo)
	env.BackupSvc = backup.NewService(env.Records, env.Logger)
	env.RosterSvc = roster.NewService(env.ClassSvc, env.StudentSvc, env.UserRepo, env.Logger)
	return env
}

func CreateUser(t *testing.T, repo user.Repository, name, email, role, pwd string) user.User {
	t.Helper()
	usr, _, err := repo.Add(context.Background(), user.User{
		ID:       core.NewID(),
		Name:     name,
		Email:    email,
		Role:     role,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateClass creates a class taught by teacherID with one stage per max points given
// (stage ids: "s1", "s2", ...).
func CreateClass(t *testing.T, svc *class.Service, teacherID, name string, stagePoints ...int) class.ClassGroup {
	t.Helper()
	stages := make([]class.NewStage, 0, len(stagePoints))
	for i, pts := range stagePoints {
		stages = append(stages, class.NewStage{
			ID:        "s" + string(rune('1'+i)),
			Name:      "Stage " + string(rune('1'+i)),
			MaxPoints: pts,
		})
	}
	c, err := svc.Create(context.Background(), class.NewClass{
		Name:      name,
		Level:     "A1",
		Schedule:  "Mon/Wed 18h",
		TeacherID: teacherID,
		Stages:    stages,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return c
}

func EnrollStudent(t *testing.T, svc *student.Service, classID, name, email string) student.Student {
	t.Helper()
	s, err := svc.Enroll(context.Background(), student.NewStudent{Name: name, Email: email}, classID)
	if err != nil {
		t.Fatalf("EnrollStudent() failed: %v", err)
	}
	return s
}

func AddActivity(t *testing.T, svc *grading.Service, classID, stageID, title string, maxPoints float64) grading.Activity {
	t.Helper()
	a, err := svc.AddActivity(context.Background(), grading.NewActivity{
		ClassID:   classID,
		Title:     title,
		StageID:   stageID,
		MaxPoints: maxPoints,
	})
	if err != nil {
		t.Fatalf("AddActivity() failed: %v", err)
	}
	return a
}

func SetGrade(t *testing.T, svc *grading.Service, activityID, studentID string, value float64) grading.Grade {
	t.Helper()
	g, err := svc.SetGrade(context.Background(), activityID, grading.SetGrade{StudentID: studentID, Value: &value})
	if err != nil {
		t.Fatalf("SetGrade() failed: %v", err)
	}
	return g
}
