package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SignInValues are the sign-in form values.
type SignInValues struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignUpValues are the sign-up form values. UniversityCard holds the
// uploaded card URL.
type SignUpValues struct {
	FullName       string `json:"fullName" validate:"required,min=3"`
	Email          string `json:"email" validate:"required,email"`
	UniversityID   int    `json:"universityId" validate:"required,gt=0"`
	Password       string `json:"password" validate:"required,min=8"`
	UniversityCard string `json:"universityCard" validate:"required,url"`
}

// ValidationError lists the fields that failed validation, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

// Validator checks values against their struct tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate returns a *ValidationError when values break a rule.
func (v *Validator) Validate(values any) error {
	err := v.v.Struct(values)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := Labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "url":
		return label + " must be uploaded"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "gt":
		return label + " must be a positive number"
	default:
		return label + " is invalid"
	}
}
