package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/quiz"
	"github.com/trezcool/escola/core/tutor"
	"github.com/trezcool/escola/core/user"
)

const defaultRecentAttempts = 10

type tutorApi struct {
	usrSvc  *user.Service
	svc     *tutor.Service
	quizSvc *quiz.Service
}

func registerTutorAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := tutorApi{
		usrSvc:  deps.UserSvc,
		svc:     deps.TutorSvc,
		quizSvc: deps.QuizSvc,
	}

	tg := g.Group("/tutor", jwt)
	tg.POST("/chat", api.chat)
	tg.POST("/grammar", api.grammar)
	tg.POST("/quiz", api.generateQuiz)
	tg.POST("/quiz/submit", api.submitQuiz)
	tg.GET("/quiz/progress", api.progress)
	tg.GET("/quiz/attempts", api.attempts)
	tg.POST("/plan", api.studyPlan)
}

// learnerID returns whose quiz log a request reads or writes: students always use their own,
// staff may name a student with the studentId query param (the whole log otherwise).
func (api *tutorApi) learnerID(ctx echo.Context) (string, error) {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return "", err
	}
	if ctxUsr.IsStudent() {
		return ctxUsr.ID, nil
	}
	return ctx.QueryParam("studentId"), nil
}

// Handlers

func (api *tutorApi) chat(ctx echo.Context) error {
	var data tutor.ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	msg, err := api.svc.Chat(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "chatting")
	}
	return ctx.JSON(http.StatusOK, msg)
}

func (api *tutorApi) grammar(ctx echo.Context) error {
	var data tutor.GrammarRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrammarRequest")
	}
	rep, err := api.svc.CheckGrammar(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "checking grammar")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *tutorApi) generateQuiz(ctx echo.Context) error {
	var data tutor.QuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizRequest")
	}
	q, err := api.svc.GenerateQuiz(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating quiz")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *tutorApi) submitQuiz(ctx echo.Context) error {
	studentID, err := api.learnerID(ctx)
	if err != nil {
		return err
	}
	var data tutor.QuizSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizSubmission")
	}
	res, err := api.svc.SubmitQuiz(ctx.Request().Context(), studentID, data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *tutorApi) progress(ctx echo.Context) error {
	studentID, err := api.learnerID(ctx)
	if err != nil {
		return err
	}
	p, err := api.quizSvc.Progress(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *tutorApi) attempts(ctx echo.Context) error {
	studentID, err := api.learnerID(ctx)
	if err != nil {
		return err
	}
	attempts, err := api.quizSvc.Recent(ctx.Request().Context(), studentID, queryInt(ctx, "limit", defaultRecentAttempts))
	if err != nil {
		return errors.Wrap(err, "listing attempts")
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *tutorApi) studyPlan(ctx echo.Context) error {
	var data tutor.PlanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlanRequest")
	}
	plan, err := api.svc.StudyPlan(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating study plan")
	}
	return ctx.JSON(http.StatusOK, plan)
}
