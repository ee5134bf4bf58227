package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

const (
	contextClassKey   = "class"
	contextStudentKey = "student"
	contextObjectKey  = "object"
)

// roleMiddleware lets through the users holding one of roles. Admins are always let through.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.IsAdmin() {
				return next(ctx)
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware()
}

// classAccessMiddleware loads the :classId class for admins and for the teacher of the class.
// Everybody else gets a 404.
func classAccessMiddleware(usrSvc *user.Service, classSvc *class.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				return err
			}
			c, err := classSvc.Get(ctx.Request().Context(), ctx.Param("classId"))
			if err != nil {
				if errors.Is(err, class.ErrNotFound) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding class by ID")
			}
			if !(ctxUsr.IsAdmin() || c.TeacherID == ctxUsr.ID) {
				return errHttpNotFound
			}
			ctx.Set(contextClassKey, c)
			return next(ctx)
		}
	}
}

// studentAccessMiddleware loads the :studentId student for admins, for the student themselves
// and for the teachers of a class the student is actively enrolled in.
func studentAccessMiddleware(usrSvc *user.Service, classSvc *class.Service, stuSvc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			rctx := ctx.Request().Context()
			ctxUsr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				return err
			}
			s, err := stuSvc.Get(rctx, ctx.Param("studentId"))
			if err != nil {
				if errors.Is(err, student.ErrNotFound) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}

			allowed := ctxUsr.IsAdmin() || s.ID == ctxUsr.ID
			if !allowed && ctxUsr.IsTeacher() {
				classes, err := classSvc.ListByTeacher(rctx, ctxUsr.ID)
				if err != nil {
					return errors.Wrap(err, "listing teacher classes")
				}
				for _, c := range classes {
					if allowed, err = stuSvc.IsEnrolled(rctx, s.ID, c.ID); err != nil {
						return errors.Wrap(err, "checking enrollment")
					} else if allowed {
						break
					}
				}
			}
			if !allowed {
				return errHttpNotFound
			}
			ctx.Set(contextStudentKey, s)
			return next(ctx)
		}
	}
}

func contextClass(ctx echo.Context) (class.ClassGroup, error) {
	c, ok := ctx.Get(contextClassKey).(class.ClassGroup)
	if !ok {
		return class.ClassGroup{}, errors.New("class object not found in echo.Context")
	}
	return c, nil
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	s, ok := ctx.Get(contextStudentKey).(student.Student)
	if !ok {
		return student.Student{}, errors.New("student object not found in echo.Context")
	}
	return s, nil
}
