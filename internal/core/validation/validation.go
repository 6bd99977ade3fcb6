// Package validation runs struct-tag validation (go-playground/validator)
// and translates its failures into AppError details.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"memorial/internal/core/apperror"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names in errors use the
// json tag so details match the API payloads.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(JSONFieldName)
	})
	return instance
}

// JSONFieldName reports a struct field by its json tag. It is also
// registered on gin's binding validator so request errors use payload names.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Struct validates v and returns a VALIDATION_ERROR on failure.
func Struct(v any) error {
	if err := Validator().Struct(v); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate converts validator errors into an AppError with one detail per
// failed field. Other errors become a plain validation error.
func Translate(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation(err.Error())
	}

	appErr := apperror.NewValidation("invalid input")
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return appErr.WithDetail("fields", fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "unique":
		return "must not contain duplicates"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid UUID"
	default:
		return "failed on " + fe.Tag()
	}
}
