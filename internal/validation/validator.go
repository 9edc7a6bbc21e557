// Package validation adapts go-playground/validator to echo.  Handlers bind
// a request struct and call c.Validate; failures become a single readable
// message naming the JSON fields at fault.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator.  Field names in errors are the
// json tag names of the request structs.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				name = strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
			}
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("seattype", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "", "NORMAL", "PREMIUM", "VIP":
				return true
			}
			return false
		})
	})
	return validate
}

// Error is a request validation failure.
type Error struct {
	Fields []FieldError
}

// FieldError describes one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// EchoValidator implements echo.Validator.
type EchoValidator struct{}

// Validate runs struct validation and converts failures into *Error.
func (EchoValidator) Validate(i any) error {
	return ValidateStruct(i)
}

// ValidateStruct validates s and returns nil or *Error.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the struct name from the namespace: "lockReq.seats[0]" -> "seats[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	f := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", f)
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s items or characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s items or characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", f)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", f)
	case "seattype":
		return fmt.Sprintf("%s must be NORMAL, PREMIUM or VIP", f)
	}
	return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
}
