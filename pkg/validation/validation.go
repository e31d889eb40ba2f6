package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	dErrors "todoweb/pkg/domain-errors"
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// Field names follow the form field a user typed into, not the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})
	return v
}

// Messages overrides rendered messages, keyed "field.tag" (e.g. "email.required").
type Messages map[string]string

func (m Messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fieldName(fe)+"."+fe.ActualTag()]; ok {
		return msg
	}
	return FieldMessage(fe)
}

// Validate validates a struct using the default validator and returns a
// validation error carrying one message per failing field.
func Validate(req any, overrides ...Messages) error {
	messages := Messages{}
	for _, o := range overrides {
		for k, v := range o {
			messages[k] = v
		}
	}

	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid request body")
	}
	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		name := fieldName(fe)
		if _, seen := fields[name]; !seen {
			fields[name] = messages.lookup(fe)
		}
	}
	return dErrors.Validation(messages.lookup(validationErrs[0]), fields)
}

// ErrorMessage converts a validator error into a human-readable message
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}
	return FieldMessage(validationErrs[0])
}

// FieldMessage renders the message for a single failing field.
func FieldMessage(fe validator.FieldError) string {
	field := fieldName(fe)

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, snakeCase(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		name = fe.StructField()
	}
	return snakeCase(name)
}

// snakeCase turns a Go field name into the form field name, e.g.
// ConfirmPassword into confirm_password and UserID into user_id.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
