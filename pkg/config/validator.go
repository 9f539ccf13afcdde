package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/compozy/traincfg/pkg/version"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("engine_version", validateEngineVersion)
}

// validateEngineVersion accepts versions the comparator can turn into a key
func validateEngineVersion(fl validator.FieldLevel) bool {
	_, err := version.Key(fl.Field().String())
	return err == nil
}
