// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prodcare/prodcare-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("situation", validateSituation)
	validate.RegisterValidation("yesno", validateYesNo)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateSituation(fl validator.FieldLevel) bool {
	return models.Situation(fl.Field().String()).Valid()
}

func validateYesNo(fl validator.FieldLevel) bool {
	v := models.YesNo(fl.Field().String())
	return v == models.Yes || v == models.No
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	case "situation":
		return e.Field() + " must be GOOD, DEGRADED or DEFECTIVE"
	case "yesno":
		return e.Field() + " must be YES or NO"
	default:
		return e.Field() + " is invalid"
	}
}
