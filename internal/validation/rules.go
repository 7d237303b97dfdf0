package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	digitsRegexp = regexp.MustCompile(`\d`)
	phoneRegexp  = regexp.MustCompile(`^[0-9+().\-\s]+$`)
)

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", isPhone); err != nil {
		return err
	}
	return nil
}

// isPhone accepts common punctuation and requires 7 to 15 digits.
func isPhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !phoneRegexp.MatchString(s) {
		return false
	}
	n := len(digitsRegexp.FindAllString(s, -1))
	return n >= 7 && n <= 15
}
