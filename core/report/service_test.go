package report_test

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/report"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
	emailsvc "github.com/trezcool/escola/services/email"
	"github.com/trezcool/escola/tests"
)

type fixture struct {
	env     *testutil.Env
	mailSvc *emailsvc.ConsoleService
	svc     *report.Service
	class   class.ClassGroup
	bia     student.Student
	caio    student.Student
}

func setup(t *testing.T, writer report.GradebookWriter) fixture {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	core.ParseEmailTemplates(env.Conf, env.Logger)

	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, ana.ID, "English A", 30)
	bia := testutil.EnrollStudent(t, env.StudentSvc, c.ID, "Bia", "bia@escola.cd")
	caio := testutil.EnrollStudent(t, env.StudentSvc, c.ID, "Caio", "caio@escola.cd")
	a1 := testutil.AddActivity(t, env.GradingSvc, c.ID, "s1", "Test 1", 10)
	testutil.AddActivity(t, env.GradingSvc, c.ID, "s1", "Test 2", 20)
	testutil.SetGrade(t, env.GradingSvc, a1.ID, bia.ID, 8.5)
	_, err := env.FeedbackSvc.Save(ctx, feedback.SaveFeedback{
		StudentID: bia.ID, ClassID: c.ID, StageID: "s1",
		Attendance: 95, Behavior: "Excelente", Participation: "Alta", Homework: "Completo",
	})
	require.NoError(t, err)

	mailSvc := emailsvc.NewConsoleServiceMock(env.Conf, env.Logger)
	svc := report.NewService(env.GradingSvc, env.FeedbackRepo, env.UserRepo, mailSvc, writer)
	return fixture{env: env, mailSvc: mailSvc, svc: svc, class: c, bia: bia, caio: caio}
}

func TestService_StageCards(t *testing.T) {
	fx := setup(t, nil)
	ctx := context.Background()

	cards, err := fx.svc.StageCards(ctx, fx.class.ID, "s1")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	bia := cards[0]
	assert.Equal(t, fx.bia.ID, bia.Student.ID)
	assert.Equal(t, 8.5, bia.Total)
	assert.Equal(t, []report.ActivityLine{
		{Title: "Test 1", MaxPoints: 10, Value: 8.5, Graded: true},
		{Title: "Test 2", MaxPoints: 20},
	}, bia.Activities)
	if assert.NotNil(t, bia.Feedback) {
		assert.Equal(t, 95, bia.Feedback.Attendance)
	}
	assert.Nil(t, cards[1].Feedback)

	card, err := fx.svc.StudentCard(ctx, fx.class.ID, "s1", fx.caio.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, card.Total)

	_, err = fx.svc.StudentCard(ctx, fx.class.ID, "s1", "nope")
	assert.True(t, errors.Is(err, student.ErrNotFound))
	_, err = fx.svc.StageCards(ctx, fx.class.ID, "s9")
	assert.True(t, errors.Is(err, class.ErrStageNotFound))
}

func TestService_SendStageReports(t *testing.T) {
	var written bool
	writer := func(w io.Writer, gb grading.Gradebook) error {
		written = true
		_, err := io.WriteString(w, gb.Class.Name)
		return err
	}
	fx := setup(t, writer)

	sent, err := fx.svc.SendStageReports(context.Background(), fx.class.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.True(t, written)

	msgs := fx.mailSvc.SentMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "bia@escola.cd", msgs[0].To[0].Address)
	assert.Contains(t, msgs[0].TextContent, "Test 1: 8.5 / 10")
	assert.Contains(t, msgs[0].TextContent, "Attendance: 95%")
	if assert.NotNil(t, msgs[0].ReplyTo) {
		assert.Equal(t, "ana@escola.cd", msgs[0].ReplyTo.Address)
	}

	teacherMsg := msgs[2]
	assert.Equal(t, "ana@escola.cd", teacherMsg.To[0].Address)
	if assert.Len(t, teacherMsg.Attachments, 1) {
		assert.Equal(t, "English A gradebook.xlsx", teacherMsg.Attachments[0].Filename)
	}
}
