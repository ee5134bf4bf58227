package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/settings"
)

type settingsApi struct {
	svc *settings.Service
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := settingsApi{svc: deps.SettingsSvc}

	sg := g.Group("/settings")

	// the login page shows the logo
	sg.GET("/logo", api.logo)

	ag := sg.Group("", jwt)
	ag.GET("", api.retrieve)
	ag.PUT("/logo", api.setLogo, adminMiddleware())
	ag.DELETE("/logo", api.removeLogo, adminMiddleware())
}

// Handlers

func (api *settingsApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *settingsApi) logo(ctx echo.Context) error {
	logo, err := api.svc.Logo(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting logo")
	}
	return ctx.JSON(http.StatusOK, LogoRequest{Logo: logo})
}

func (api *settingsApi) setLogo(ctx echo.Context) error {
	var data LogoRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LogoRequest")
	}
	if err := api.svc.SetLogo(ctx.Request().Context(), data.Logo); err != nil {
		return errors.Wrap(err, "setting logo")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *settingsApi) removeLogo(ctx echo.Context) error {
	if err := api.svc.RemoveLogo(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "removing logo")
	}
	return ctx.NoContent(http.StatusNoContent)
}
