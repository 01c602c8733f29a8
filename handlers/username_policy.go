package handlers

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Shape of a username that can be registered locally. The availability
// engine assumes its input already passed this check.
var localUsernamePattern = regexp.MustCompile(`^\w{1,20}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("localusername", func(fl validator.FieldLevel) bool {
		return localUsernamePattern.MatchString(fl.Field().String())
	})
	return v
}
