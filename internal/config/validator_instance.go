package config

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern      = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	commandNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)
)

// validatorInstance configures and returns the shared validator instance
// used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		// Platform command names: lowercase, digits, underscore, hyphen,
		// at most 32 characters.
		_ = v.RegisterValidation("command_name", func(fl validator.FieldLevel) bool {
			return commandNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}
