// Package validation holds the struct validator shared by every service.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/taxid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Fields are reported by their json
// name; notblank and the tax id tags are registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			return field.Kind() == reflect.String && strings.TrimSpace(field.String()) != ""
		})
		_ = taxid.Register(v)
		validate = v
	})
	return validate
}

// Struct runs the struct rules on v and reports failures as an
// *apperror.ValidationError for entity.
func Struct(entity string, v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := apperror.NewValidation(entity)
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), ruleCode(fe.Tag()), ruleMessage(fe))
	}
	return out.OrNil()
}

func ruleCode(tag string) string {
	switch tag {
	case "required", "notblank":
		return "required"
	case "cnpj", "cpf", "document":
		return "invalid_tax_id"
	default:
		return "invalid"
	}
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "cnpj":
		return "invalid CNPJ"
	case "cpf":
		return "invalid CPF"
	case "document":
		return "invalid CNPJ/CPF"
	case "email":
		return "invalid e-mail"
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
