// Package validation registers the billing-specific binding rules with gin's
// validator and turns validator errors into field messages.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var couponCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

var once sync.Once

// Register installs the custom rules on gin's default validator. Safe to
// call more than once.
func Register() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Install(v)
		}
	})
}

// Install adds the custom rules to v.
func Install(v *validator.Validate) {
	// Decimals are compared as floats so gt/gte/lte work on money fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("coupon_code", func(fl validator.FieldLevel) bool {
		return couponCodePattern.MatchString(fl.Field().String())
	})
}

// IsCouponCode reports whether s is an acceptable coupon code.
func IsCouponCode(s string) bool {
	return couponCodePattern.MatchString(s)
}

type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Fields flattens validator errors. Any other error yields nil.
func Fields(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "iso4217":
		return fe.Field() + " must be an ISO 4217 currency code"
	case "coupon_code":
		return fe.Field() + " must be 3-50 letters, digits, '-' or '_'"
	}
	return fe.Field() + " is invalid"
}
