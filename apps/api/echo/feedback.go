package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/user"
)

type feedbackApi struct {
	svc *feedback.Service
}

// registerFeedbackAPI mounts the qualitative feedback of a class under /classes/:classId/feedback.
func registerFeedbackAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := feedbackApi{svc: deps.FeedbackSvc}

	fg := g.Group(
		"/classes/:classId/feedback",
		jwt,
		roleMiddleware(user.RoleTeacher),
		classAccessMiddleware(deps.UserSvc, deps.ClassSvc),
	)
	fg.GET("", api.query)
	fg.PUT("", api.save)
	fg.DELETE("/:feedbackId", api.destroy)
}

// Handlers

func (api *feedbackApi) query(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	fbs, err := api.svc.ListByClass(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}

	if stageID := ctx.QueryParam("stage"); stageID != "" {
		filtered := make([]feedback.Feedback, 0, len(fbs))
		for _, f := range fbs {
			if f.StageID == stageID {
				filtered = append(filtered, f)
			}
		}
		fbs = filtered
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *feedbackApi) save(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	var data feedback.SaveFeedback
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveFeedback")
	}
	data.ClassID = c.ID

	f, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving feedback")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feedbackApi) destroy(ctx echo.Context) error {
	c, err := contextClass(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	fbs, err := api.svc.ListByClass(rctx, c.ID)
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	id := ctx.Param("feedbackId")
	for _, f := range fbs {
		if f.ID == id {
			if err = api.svc.Delete(rctx, id); err != nil {
				return errors.Wrap(err, "deleting feedback")
			}
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errHttpNotFound
}
