package feedback

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

// scale tags; oneof cannot express values containing spaces
var (
	behaviorTag      = "behavior"
	participationTag = "participation"
	homeworkTag      = "homework"
)

// InitValidators registers the feedback scale validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	for tag, scale := range map[string][]string{
		behaviorTag:      Behaviors,
		participationTag: Participations,
		homeworkTag:      Homeworks,
	} {
		_ = validate.RegisterValidation(tag, scaleValidation(scale))
		core.RegisterCustomTranslation(validate, translator, tag, "must be one of: "+strings.Join(scale, ", "))
	}
}

func scaleValidation(scale []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		for _, s := range scale {
			if s == val {
				return true
			}
		}
		return false
	}
}
