package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of input and reports failures per field.
func validateStruct(input any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fieldMessage(fe))
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "email":
		return "e-mail inválido"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("deve ter pelo menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("deve ser no mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("deve ser no máximo %s", fe.Param())
	case "gt":
		return fmt.Sprintf("deve ser maior que %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("deve ser um de: %s", fe.Param())
	case "datetime":
		return "data inválida (use AAAA-MM-DD)"
	}
	return "valor inválido"
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
