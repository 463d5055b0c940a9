package middleware

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate is the shared struct validator. Field errors are reported under
// their json (or query) names.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query", "params"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// StructValidationResponse answers with the validator errors of err.
func StructValidationResponse(c *fiber.Ctx, err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	errors := make(map[string]string, len(ve))
	for _, fieldErr := range ve {
		errors[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return ValidationErrorResponse(c, errors)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required!"
	case "gt":
		return fmt.Sprintf("Must be greater than %s!", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("Must be at least %s!", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("Must be at most %s!", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s!", fe.Param())
	case "datetime":
		return fmt.Sprintf("Must be a date formatted as %s!", fe.Param())
	}
	return fmt.Sprintf("Failed %s validation!", fe.Tag())
}
