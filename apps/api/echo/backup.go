package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/roster"
	"github.com/trezcool/escola/services/spreadsheet"
)

type backupApi struct {
	svc       *backup.Service
	rosterSvc *roster.Service
}

func registerBackupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := backupApi{
		svc:       deps.BackupSvc,
		rosterSvc: deps.RosterSvc,
	}

	bg := g.Group("/backup", jwt, adminMiddleware())
	bg.GET("", api.export)
	bg.POST("/restore", api.restore)
	bg.GET("/auto", api.latestAuto)
	bg.POST("/auto", api.runAuto)

	rg := g.Group("/roster", jwt, adminMiddleware())
	rg.POST("/import", api.importRoster)
}

// Handlers

func (api *backupApi) export(ctx echo.Context) error {
	data := api.svc.Export(ctx.Request().Context())
	filename := "escola-backup-" + core.NowFunc().Format("2006-01-02") + ".json"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

func (api *backupApi) restore(ctx echo.Context) error {
	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading backup document")
	}
	if err = api.svc.Restore(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "restoring backup")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "backup restored"})
}

func (api *backupApi) latestAuto(ctx echo.Context) error {
	snap, ok := api.svc.LatestAutoBackup(ctx.Request().Context())
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *backupApi) runAuto(ctx echo.Context) error {
	if !api.svc.RunAutoBackup(ctx.Request().Context()) {
		return errStorageFull
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: "auto backup stored"})
}

// importRoster reads the "file" spreadsheet of a multipart form. Classes whose teacher
// cannot be resolved go to the teacherId form value (the caller by default).
func (api *backupApi) importRoster(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "this field is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening roster file")
	}
	defer f.Close()

	rows, err := spreadsheet.ReadRoster(f)
	if err != nil {
		return errors.Wrap(err, "reading roster")
	}

	teacherID := ctx.FormValue("teacherId")
	if teacherID == "" {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		teacherID = claims.Subject
	}

	rep, err := api.rosterSvc.Import(ctx.Request().Context(), rows, teacherID)
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}
	return ctx.JSON(http.StatusCreated, rep)
}
