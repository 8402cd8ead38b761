package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest marks a request rejected before it reached a service
var ErrInvalidRequest = errors.New("invalid request")

// RequestValidator adapts go-playground/validator to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, fe.Field())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s]", ErrInvalidRequest, fe.Field(), fe.Param())
	case "email":
		return fmt.Errorf("%w: %s must be a valid email", ErrInvalidRequest, fe.Field())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrInvalidRequest, fe.Field())
	}
}
