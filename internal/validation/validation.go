// Package validation wraps go-playground/validator with the form rules used by
// the login, registration, profile and password endpoints, and turns
// failures into one field-specific message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/moviemania/frontend/types"
)

const (
	MinAge = 13
	MaxAge = 120

	// MaxPasswordBytes is the longest input bcrypt hashes.
	MaxPasswordBytes = 72
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// now is replaced in tests.
	now = time.Now
)

// Error is a single field validation failure.
type Error struct {
	Field   string
	Tag     string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		mustRegister(v, "password", validatePassword)
		mustRegister(v, "pwbytes", validatePasswordBytes)
		mustRegister(v, "date", validateDate)
		mustRegister(v, "age", validateAge)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Struct validates s and returns the first failure as *Error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &Error{Field: fe.Field(), Tag: fe.Tag(), Message: message(fe)}
}

// Password checks a password against the account password policy.
func Password(field, password string) error {
	if len(password) < 8 {
		return &Error{Field: field, Tag: "min", Message: "Password must be at least 8 characters long."}
	}
	if len(password) > MaxPasswordBytes {
		return &Error{Field: field, Tag: "pwbytes", Message: passwordTooLong}
	}
	if !hasLetterAndDigit(password) {
		return &Error{Field: field, Tag: "password", Message: "Password must contain at least one letter and one digit."}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Enter a valid email address."
	case "min":
		if strings.Contains(fe.Field(), "password") {
			return fmt.Sprintf("Password must be at least %s characters long.", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long.", fe.Field(), fe.Param())
	case "pwbytes":
		return passwordTooLong
	case "password":
		return "Password must contain at least one letter and one digit."
	case "eqfield":
		return "Passwords do not match."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	case "date":
		return fmt.Sprintf("%s must be a date formatted YYYY-MM-DD.", fe.Field())
	case "age":
		return fmt.Sprintf("Age must be between %d and %d years.", MinAge, MaxAge)
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

var passwordTooLong = fmt.Sprintf("Password must be at most %d bytes long.", MaxPasswordBytes)

func validatePasswordBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

func validatePassword(fl validator.FieldLevel) bool {
	return hasLetterAndDigit(fl.Field().String())
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// validateDate accepts an empty string or YYYY-MM-DD.
func validateDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := types.ParseDate(value)
	return err == nil
}

// validateAge accepts an empty string, an unparseable date (left to "date"),
// or a birthday giving an age in [MinAge, MaxAge].
func validateAge(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	d, err := types.ParseDate(value)
	if err != nil {
		return true
	}
	age := d.YearsSince(now())
	return age >= MinAge && age <= MaxAge
}
