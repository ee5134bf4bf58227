package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/report"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

type studentApi struct {
	usrSvc     *user.Service
	svc        *student.Service
	gradingSvc *grading.Service
	fbSvc      *feedback.Service
	reportSvc  *report.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := studentApi{
		usrSvc:     deps.UserSvc,
		svc:        deps.StudentSvc,
		gradingSvc: deps.GradingSvc,
		fbSvc:      deps.FeedbackSvc,
		reportSvc:  deps.ReportSvc,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, adminMiddleware())

	// detail endpoints
	dg := sg.Group("/:studentId", studentAccessMiddleware(api.usrSvc, deps.ClassSvc, api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/transfer", api.transfer, adminMiddleware())
	dg.GET("/history", api.history)
	dg.GET("/feedback", api.feedback)
	dg.GET("/classes/:classId/totals", api.totals)
	dg.GET("/classes/:classId/stages/:stageId/card", api.card)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if s, err = api.svc.Update(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) transfer(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	var data student.TransferRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	if err = api.svc.Transfer(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "transferring student")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "student transferred"})
}

func (api *studentApi) history(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.History(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *studentApi) feedback(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	fbs, err := api.fbSvc.ListByStudent(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *studentApi) totals(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	totals, err := api.gradingSvc.StudentTotals(ctx.Request().Context(), ctx.Param("classId"), s.ID)
	if err != nil {
		return errors.Wrap(err, "computing stage totals")
	}
	return ctx.JSON(http.StatusOK, totals)
}

func (api *studentApi) card(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	card, err := api.reportSvc.StudentCard(ctx.Request().Context(), ctx.Param("classId"), ctx.Param("stageId"), s.ID)
	if err != nil {
		return errors.Wrap(err, "building report card")
	}
	return ctx.JSON(http.StatusOK, card)
}
