// Package validation wires go-playground/validator with the field rules used
// by request bodies: Brazilian CPF, phone numbers and complaint statuses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"denuncias/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "BR"

var nonDigits = regexp.MustCompile(`\D`)

// New returns a validator with the custom tags registered and JSON field
// names used in error reports.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return ValidCPF(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, err := NormalizePhone(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("complaint_status", func(fl validator.FieldLevel) bool {
		return models.IsValidStatus(fl.Field().String())
	})
	return v
}

// FieldErrors flattens a validation error into field -> message.
// Non-validation errors are reported under "body".
func FieldErrors(err error) map[string]string {
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		messages["body"] = err.Error()
		return messages
	}
	for _, e := range validationErrors {
		messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return messages
}

// NormalizeEmail trims and lower-cases an email so lookups and the unique
// index treat addresses case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCPF strips punctuation, leaving the 11 digits.
func NormalizeCPF(cpf string) string {
	return nonDigits.ReplaceAllString(cpf, "")
}

// ValidCPF checks length and both check digits of a CPF.
func ValidCPF(cpf string) bool {
	cpf = NormalizeCPF(cpf)
	if len(cpf) != 11 {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == len(cpf) {
		return false
	}
	digits := make([]int, len(cpf))
	for i := range cpf {
		digits[i], _ = strconv.Atoi(cpf[i : i+1])
	}
	return digits[9] == cpfCheckDigit(digits[:9]) && digits[10] == cpfCheckDigit(digits[:10])
}

func cpfCheckDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// NormalizePhone parses a phone number, defaulting to Brazil when no country
// code is given, and returns it in E.164 form.
func NormalizePhone(phone string) (string, error) {
	clean := strings.TrimSpace(phone)
	if clean == "" {
		return "", fmt.Errorf("%w: empty phone number", models.ErrBadRequest)
	}
	num, err := phonenumbers.Parse(clean, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse phone number: %v", models.ErrBadRequest, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: invalid phone number %s", models.ErrBadRequest, phone)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
