package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

var (
	staffRoleTag  = "staffrole"
	staffRoleText = "role must be one of admin or teacher"
)

// InitValidators registers the user validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(staffRoleTag, staffRoleValidation)
	core.RegisterCustomTranslation(validate, translator, staffRoleTag, staffRoleText)
}

// staffRoleValidation accepts the roles that can be created directly (students are enrolled instead).
func staffRoleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(string); ok {
		return role == RoleAdmin || role == RoleTeacher
	}
	return false
}
