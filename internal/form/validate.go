// Package form does the field-level validation of the portal views and
// turns validator failures into one message per field.
package form

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/haguru/kakashi/internal/models/dto"
)

// Errors maps a field name to its message. Empty means the form is valid.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Validator validates form structs and names fields by their form tag.
type Validator struct {
	validate *structValidator.Validate
}

// NewValidator builds a validator of its own that names fields by their form
// tag, leaving the naming of other validators untouched.
func NewValidator() *Validator {
	validate := structValidator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: validate}
}

// Validate checks v against its validate tags and labels the messages with fields.
func (v *Validator) Validate(value interface{}, fields []Field) Errors {
	errs := Errors{}
	err := v.validate.Struct(value)
	if err == nil {
		return errs
	}

	var validationErrors structValidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["form"] = err.Error()
		return errs
	}
	for _, fe := range validationErrors {
		name := fe.Field()
		if errs.Has(name) {
			continue
		}
		errs[name] = message(labelFor(fields, name), fe)
	}
	return errs
}

// ValidateSignup validates a signup submission.
func (v *Validator) ValidateSignup(req dto.SignupRequestDTO) Errors {
	return v.Validate(req, SignupFields)
}

// ValidateLogin validates a login submission.
func (v *Validator) ValidateLogin(req dto.LoginRequestDTO) Errors {
	return v.Validate(req, LoginFields)
}

func message(label string, fe structValidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// DecodeSignup reads the posted signup form. Values are trimmed and the
// email is lowercased; the password is taken verbatim.
func DecodeSignup(r *http.Request) (dto.SignupRequestDTO, error) {
	if err := r.ParseForm(); err != nil {
		return dto.SignupRequestDTO{}, err
	}
	return dto.SignupRequestDTO{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.ToLower(strings.TrimSpace(r.PostForm.Get("email"))),
		Password: r.PostForm.Get("password"),
		Role:     strings.TrimSpace(r.PostForm.Get("role")),
	}, nil
}

// DecodeLogin reads the posted login form.
func DecodeLogin(r *http.Request) (dto.LoginRequestDTO, error) {
	if err := r.ParseForm(); err != nil {
		return dto.LoginRequestDTO{}, err
	}
	return dto.LoginRequestDTO{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}, nil
}
