package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// validateInput checks the normalized input and returns a validation error keyed by
// field path (for example "shipping_address.city" or "lines[1].quantity").
func validateInput(input CommitInput) error {
	details := map[string]string{}
	if err := validate.Struct(input); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr.Namespace())] = validationMessage(fieldErr)
		}
	}
	for i, line := range input.Lines {
		field := fmt.Sprintf("lines[%d].unit_price", i)
		switch {
		case line.UnitPrice.IsNegative():
			details[field] = "must not be negative"
		case !line.UnitPrice.Equal(line.UnitPrice.Round(moneyPlaces)):
			details[field] = fmt.Sprintf("must have at most %d decimal places", moneyPlaces)
		}
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return "is invalid"
}
