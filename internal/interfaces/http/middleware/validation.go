package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
)

// SetupValidator reports fields by their json names and registers the
// storefront's enum tags on gin's validator
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	tags := map[string]validator.Func{
		"order_status": func(fl validator.FieldLevel) bool {
			return order.Status(fl.Field().String()).Valid()
		},
		"voucher_type": func(fl validator.FieldLevel) bool {
			return voucher.Type(fl.Field().String()).Valid()
		},
		"voucher_status": func(fl validator.FieldLevel) bool {
			s := voucher.Status(fl.Field().String())
			return s == voucher.StatusActive || s == voucher.StatusInactive
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// ValidationDetails maps binding errors to field messages. Errors that are
// not validation errors (bad JSON, wrong types) yield nil.
func ValidationDetails(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	details := make(map[string]string, len(errs))
	for _, e := range errs {
		details[e.Field()] = validationMessage(e)
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "order_status":
		return "Unknown order status"
	case "voucher_type":
		return "Must be one of: percentage, fixed_amount, free_shipping"
	case "voucher_status":
		return "Must be active or inactive"
	default:
		return "Invalid value"
	}
}
