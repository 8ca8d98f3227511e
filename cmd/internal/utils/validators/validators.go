package validators

import (
	"reflect"
	"regexp"
	"strings"

	"terminplaner/cmd/internal/utils"

	"github.com/go-playground/validator/v10"
)

var hexColor6 = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HexColor6 accepts only the "#RRGGBB" form. The builtin hexcolor also lets
// "#RGB" and "#RRGGBBAA" through.
func HexColor6(fl validator.FieldLevel) bool {
	return hexColor6.MatchString(fl.Field().String())
}

// IsIso8601 accepts any timestamp utils.FromEpoch can parse.
func IsIso8601(fl validator.FieldLevel) bool {
	_, err := utils.FromEpoch(fl.Field().String())
	return err == nil
}

// Register installs the custom rules and reports fields by their json name.
func Register(validate *validator.Validate) {
	_ = validate.RegisterValidation("hexcolor6", HexColor6)
	_ = validate.RegisterValidation("iso8601", IsIso8601)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}
