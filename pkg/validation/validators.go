package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Same permissive shape the site's forms check client-side: something@something.something
var basicEmailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("basic_email", BasicEmail)
}

// BasicEmail validates the <non-whitespace>@<non-whitespace>.<non-whitespace> shape
func BasicEmail(fl validator.FieldLevel) bool {
	return basicEmailRegex.MatchString(fl.Field().String())
}
