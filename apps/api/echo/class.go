package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/report"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
	"github.com/trezcool/escola/services/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type classApi struct {
	usrSvc     *user.Service
	svc        *class.Service
	stuSvc     *student.Service
	gradingSvc *grading.Service
	reportSvc  *report.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := classApi{
		usrSvc:     deps.UserSvc,
		svc:        deps.ClassSvc,
		stuSvc:     deps.StudentSvc,
		gradingSvc: deps.GradingSvc,
		reportSvc:  deps.ReportSvc,
	}

	cg := g.Group("/classes", jwt, roleMiddleware(user.RoleTeacher))
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	// detail endpoints
	dg := cg.Group("/:classId", classAccessMiddleware(api.usrSvc, api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())

	dg.POST("/stages", api.addStage)
	dg.GET("/stages", api.stageSummaries)
	dg.PUT("/stages/:stageId", api.updateStage)
	dg.DELETE("/stages/:stageId", api.removeStage)
	dg.GET("/stages/:stageId/reports", api.stageCards)
	dg.POST("/stages/:stageId/reports", api.sendStageReports)

	dg.GET("/students", api.students)
	dg.POST("/students", api.enroll)
	dg.DELETE("/students/:studentId", api.unenroll)

	dg.GET("/activities", api.activities)
	dg.POST("/activities", api.addActivity)
	dg.PUT("/activities/:activityId", api.updateActivity)
	dg.DELETE("/activities/:activityId", api.deleteActivity)
	dg.PUT("/activities/:activityId/grades", api.setGrade)
	dg.DELETE("/activities/:activityId/grades/:studentId", api.deleteGrade)

	dg.GET("/grades", api.grades)
	dg.GET("/gradebook", api.gradebook)
	dg.GET("/gradebook.xlsx", api.gradebookXLSX)
}

// Handlers

func (api *classApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	var classes []class.ClassGroup
	if ctxUsr.IsAdmin() {
		classes, err = api.svc.List(ctx.Request().Context())
	} else {
		classes, err = api.svc.ListByTeacher(ctx.Request().Context(), ctxUsr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) update(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	var data class.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if c, err = api.svc.Update(ctx.Request().Context(), c.ID, data); err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) destroy(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) addStage(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	var data class.NewStage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStage")
	}
	if c, err = api.svc.AddStage(ctx.Request().Context(), c.ID, data); err != nil {
		return errors.Wrap(err, "adding stage")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classApi) stageSummaries(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	sums, err := api.gradingSvc.StageSummaries(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing stages")
	}
	return ctx.JSON(http.StatusOK, sums)
}

func (api *classApi) updateStage(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	var data class.UpdateStage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStage")
	}
	if c, err = api.svc.UpdateStage(ctx.Request().Context(), c.ID, ctx.Param("stageId"), data); err != nil {
		return errors.Wrap(err, "updating stage")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classApi) removeStage(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RemoveStage(ctx.Request().Context(), c.ID, ctx.Param("stageId")); err != nil {
		return errors.Wrap(err, "removing stage")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) stageCards(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	cards, err := api.reportSvc.StageCards(ctx.Request().Context(), c.ID, ctx.Param("stageId"))
	if err != nil {
		return errors.Wrap(err, "building report cards")
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *classApi) sendStageReports(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	sent, err := api.reportSvc.SendStageReports(ctx.Request().Context(), c.ID, ctx.Param("stageId"))
	if err != nil {
		return errors.Wrap(err, "sending report cards")
	}
	return ctx.JSON(http.StatusAccepted, CountResponse{Count: sent})
}

func (api *classApi) students(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	activeOnly := !queryBool(ctx, "all", false)
	students, err := api.stuSvc.ListByClass(ctx.Request().Context(), c.ID, activeOnly)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *classApi) enroll(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	s, err := api.stuSvc.Enroll(ctx.Request().Context(), data, c.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *classApi) unenroll(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	if err = api.stuSvc.Unenroll(ctx.Request().Context(), ctx.Param("studentId"), c.ID); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) activities(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	acts, err := api.gradingSvc.ListActivities(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing activities")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *classApi) addActivity(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	var data grading.NewActivity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	data.ClassID = c.ID
	a, err := api.gradingSvc.AddActivity(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding activity")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// classActivity returns the :activityId activity, provided it belongs to the context class.
func (api *classApi) classActivity(ctx echo.Context) (grading.Activity, error) {
	c, err := contextClass(ctx)
	if err != nil {
		return grading.Activity{}, err
	}
	a, err := api.gradingSvc.GetActivity(ctx.Request().Context(), ctx.Param("activityId"))
	if err != nil {
		return grading.Activity{}, err
	}
	if a.ClassID != c.ID {
		return grading.Activity{}, errHttpNotFound
	}
	return a, nil
}

func (api *classApi) updateActivity(ctx echo.Context) error {
	a, err := api.classActivity(ctx)
	if err != nil {
		return err
	}
	var data grading.UpdateActivity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	if a, err = api.gradingSvc.UpdateActivity(ctx.Request().Context(), a.ID, data); err != nil {
		return errors.Wrap(err, "updating activity")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *classApi) deleteActivity(ctx echo.Context) error {
	a, err := api.classActivity(ctx)
	if err != nil {
		return err
	}
	if err = api.gradingSvc.DeleteActivity(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) setGrade(ctx echo.Context) error {
	a, err := api.classActivity(ctx)
	if err != nil {
		return err
	}
	var data grading.SetGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetGrade")
	}
	g, err := api.gradingSvc.SetGrade(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "setting grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *classApi) deleteGrade(ctx echo.Context) error {
	a, err := api.classActivity(ctx)
	if err != nil {
		return err
	}
	if err = api.gradingSvc.DeleteGrade(ctx.Request().Context(), a.ID, ctx.Param("studentId")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) grades(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	grades, err := api.gradingSvc.ListGrades(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *classApi) gradebook(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	gb, err := api.gradingSvc.Gradebook(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "building gradebook")
	}
	return ctx.JSON(http.StatusOK, gb)
}

func (api *classApi) gradebookXLSX(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	gb, err := api.gradingSvc.Gradebook(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "building gradebook")
	}
	var buf bytes.Buffer
	if err = spreadsheet.WriteGradebook(&buf, gb); err != nil {
		return errors.Wrap(err, "writing gradebook")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+c.Name+` gradebook.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
