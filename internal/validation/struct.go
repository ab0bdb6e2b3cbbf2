package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"facegram/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Validator checks request DTOs against their `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the project's custom rules registered:
// notblank, username, password and facegram_email.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "username", func(fl validator.FieldLevel) bool { return ValidateUsername(fl.Field().String()) == nil })
	mustRegister(v, "password", func(fl validator.FieldLevel) bool { return ValidatePassword(fl.Field().String()) == nil })
	mustRegister(v, "facegram_email", func(fl validator.FieldLevel) bool { return ValidateEmail(fl.Field().String()) == nil })
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// Struct validates s and returns a validation AppError describing the first
// failing field, or nil.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	return models.NewValidationError(fieldMessage(verrs[0]))
}

// fieldMessage turns a validator failure into client-facing text. Custom
// rules reuse the detailed message from the matching Validate function.
func fieldMessage(fe validator.FieldError) string {
	value, _ := fe.Value().(string)
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "password":
		return capitalize(ValidatePassword(value).Error())
	case "username":
		return capitalize(ValidateUsername(value).Error())
	case "facegram_email", "email":
		return "Invalid email format"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
