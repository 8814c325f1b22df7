package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Accepts +1234567890, 123-456-7890 and (123) 456-7890 style numbers.
var phonePattern = regexp.MustCompile(`^(\+\d{1,3})?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)

// IsValidPhone reports whether value matches the accepted phone formats.
func IsValidPhone(value string) bool {
	return phonePattern.MatchString(value)
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

// RegisterPhoneValidation installs the "phone" binding tag on gin's
// validator engine. Call once at startup.
func RegisterPhoneValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("phone", validatePhone)
}
