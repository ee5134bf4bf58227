package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/escola/apps/api/echo"
	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/report"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/tutor"
	"github.com/trezcool/escola/core/user"
	aisvc "github.com/trezcool/escola/services/ai"
	emailsvc "github.com/trezcool/escola/services/email"
	"github.com/trezcool/escola/services/spreadsheet"
	"github.com/trezcool/escola/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	env     *testutil.Env
	app     *Server
	mailSvc *emailsvc.ConsoleService

	admin, teacher, other user.User
	class                 class.ClassGroup
	bia                   student.Student
}

// setup builds a server over a fresh in-memory store holding an admin, two teachers
// and the class "English A" (stages s1: 30, s2: 40) of teacher with the student Bia.
func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	core.ParseEmailTemplates(env.Conf, env.Logger)
	mailSvc := emailsvc.NewConsoleServiceMock(env.Conf, env.Logger)

	app := NewServer(&Deps{
		Conf:        env.Conf,
		Logger:      env.Logger,
		Validate:    env.Validate,
		Translator:  env.Translator,
		UserSvc:     env.UserSvc,
		ClassSvc:    env.ClassSvc,
		StudentSvc:  env.StudentSvc,
		GradingSvc:  env.GradingSvc,
		FeedbackSvc: env.FeedbackSvc,
		QuizSvc:     env.QuizSvc,
		TutorSvc:    tutor.NewService(aisvc.Offline{}, env.QuizSvc, env.Validate),
		SettingsSvc: env.SettingsSvc,
		BackupSvc:   env.BackupSvc,
		RosterSvc:   env.RosterSvc,
		ReportSvc:   report.NewService(env.GradingSvc, env.FeedbackRepo, env.UserRepo, mailSvc, spreadsheet.WriteGradebook),
	})

	fx := fixture{env: env, app: app, mailSvc: mailSvc}
	fx.admin = testutil.CreateUser(t, env.UserRepo, "Admin", "admin@escola.cd", user.RoleAdmin, "admin")
	fx.teacher = testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	fx.other = testutil.CreateUser(t, env.UserRepo, "Rui", "rui@escola.cd", user.RoleTeacher, "pwd")
	fx.class = testutil.CreateClass(t, env.ClassSvc, fx.teacher.ID, "English A", 30, 40)
	fx.bia = testutil.EnrollStudent(t, env.StudentSvc, fx.class.ID, "Bia", "bia@escola.cd")
	return fx
}

// do runs a request against the server.
func (fx fixture) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	fx.app.ServeHTTP(rec, req)
	return rec
}

func (fx fixture) token(t *testing.T, usr user.User) string {
	return getToken(t, fx.env.Conf, usr)
}

func (fx fixture) studentUser(t *testing.T, s student.Student) user.User {
	usr, err := fx.env.UserRepo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshallBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshallBody(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "unexpected code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runHTTPTests runs each case against the server.
func runHTTPTests(t *testing.T, fx fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
