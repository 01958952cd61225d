package validator

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/movie-info-service/internal/domain"
)

const (
	ErrRequired = "is required"
	ErrNotBlank = "must be present"
	ErrPositive = "must be a positive value"
	ErrInvalid  = "is invalid"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterTagNameFunc(jsonFieldName)
	validator.RegisterValidation("notblank", validateNotBlank)

	return validator
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	if name == "" {
		return fld.Name
	}

	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()

	switch field.Kind() {
	case reflect.String:
		return strings.TrimFunc(field.String(), unicode.IsSpace) != ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return field.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !field.IsNil()
	default:
		return !field.IsZero()
	}
}

// Struct validates s and converts validator failures into a
// *domain.ValidationError. Anything else the validator returns (for example
// an invalid argument) is passed through unchanged.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrs := make([]domain.FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrs[i] = domain.FieldError{
			Field:   fieldPath(fe),
			Message: ValidationMessage(fe),
		}
	}

	return &domain.ValidationError{Errors: fieldErrs}
}

// fieldPath drops the top-level struct name from the namespace so that
// "MovieInfo.cast[1]" is reported as "cast[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return fe.Field()
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return ErrRequired
	case "notblank":
		return ErrNotBlank
	case "gt":
		if err.Param() == "0" {
			return ErrPositive
		}
		return ErrInvalid
	default:
		return ErrInvalid
	}
}
