package taxid

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Register adds the cnpj, cpf and document (either) tags to v.
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"cnpj":     IsCNPJValid,
		"cpf":      IsCPFValid,
		"document": IsDocumentValid,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, stringRule(fn)); err != nil {
			return err
		}
	}
	return nil
}

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return fn(field.String())
	}
}
