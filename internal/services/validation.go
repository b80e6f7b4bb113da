package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// NewValidator returns a validator that also understands the "coordinates" tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("coordinates", func(fl validator.FieldLevel) bool {
		_, _, err := models.ParseCoordinates(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateStruct runs v over s and reports the first failure as a *models.ValidationError.
func ValidateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &models.ValidationError{
			Field:  strings.ToLower(fe.Field()),
			Reason: reasonFor(fe),
		}
	}
	return &models.ValidationError{Field: "request", Reason: err.Error()}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "coordinates":
		return "must be a lat,lon pair such as 35.4937,-118.8591"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
