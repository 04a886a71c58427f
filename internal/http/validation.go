package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"receipts/internal/core"
)

// newValidator returns a validator that understands the tags on
// core.ReceiptInput. Money is compared as paise and field names in errors
// follow the JSON tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if m, ok := field.Interface().(core.Money); ok {
			return m.Cents
		}
		return nil
	}, core.Money{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return core.Status(fl.Field().String()).Valid()
	})

	return v
}

// validationDetails maps each failed field to the rule it broke. ok is
// false when err is not a validation failure.
func validationDetails(err error) (details map[string]string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	details = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details, true
}
