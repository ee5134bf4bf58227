package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string     `json:"token"`
		User  *user.User `json:"user,omitempty"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	CountResponse struct {
		Count int `json:"count"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	LogoRequest struct {
		Logo string `json:"logo"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

// queryInt returns the integer query param name, or def when absent or invalid.
func queryInt(ctx echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(ctx.QueryParam(name)); err == nil {
		return v
	}
	return def
}

// queryBool returns the boolean query param name, or def when absent or invalid.
func queryBool(ctx echo.Context, name string, def bool) bool {
	if v, err := strconv.ParseBool(ctx.QueryParam(name)); err == nil {
		return v
	}
	return def
}
