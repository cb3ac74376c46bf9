// internal/forms/fields.go
package forms

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	phoneRegion       = "IN"
	minPasswordLength = 6
	minPersonNameLen  = 3
)

var (
	emailRegex       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	personNameRegex  = regexp.MustCompile(`^[a-zA-Z\s.]+$`)
	tenDigitsRegex   = regexp.MustCompile(`^\d{10}$`)
	nonDigitRegex    = regexp.MustCompile(`\D`)
	ifscRegex        = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	bankAccountRegex = regexp.MustCompile(`^\d{9,18}$`)
)

func ValidateEmail(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Email is required"
	}
	if !emailRegex.MatchString(value) {
		return "Invalid email format"
	}
	return ""
}

func ValidatePassword(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Password is required"
	}
	if len(value) < minPasswordLength {
		return "At least 6 characters required"
	}
	return ""
}

func ValidateConfirm(password, confirm string) string {
	if confirm != password {
		return "Passwords do not match"
	}
	return ""
}

// ValidatePhone accepts any formatting as long as exactly ten digits remain and
// they form a dialable Indian number.
func ValidatePhone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Phone number is required"
	}
	if _, ok := NormalizePhone(value); !ok {
		return "Enter a valid 10-digit number"
	}
	return ""
}

// NormalizePhone returns the E.164 form of a ten digit Indian number.
func NormalizePhone(value string) (string, bool) {
	digits := nonDigitRegex.ReplaceAllString(value, "")
	if !tenDigitsRegex.MatchString(digits) {
		return "", false
	}
	num, err := phonenumbers.Parse(digits, phoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

func ValidateRequired(value string) string {
	if strings.TrimSpace(value) == "" {
		return "This field is required"
	}
	return ""
}

func ValidateGivenName(value string) string {
	if strings.TrimSpace(value) == "" {
		return "This field is required"
	}
	if !personNameRegex.MatchString(value) {
		return "Only letters allowed"
	}
	return ""
}

func ValidatePersonName(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "Name is required"
	}
	if len(trimmed) < minPersonNameLen {
		return "Name must be at least 3 characters"
	}
	if !personNameRegex.MatchString(value) {
		return "Name can only contain letters and spaces"
	}
	return ""
}

func ValidateGender(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "M", "F":
		return ""
	}
	return "Enter M or F"
}

func ValidateIFSC(value string) string {
	if !ifscRegex.MatchString(strings.ToUpper(strings.TrimSpace(value))) {
		return "Invalid IFSC format"
	}
	return ""
}

func ValidateBankAccount(value string) string {
	if !bankAccountRegex.MatchString(value) {
		return "Must be 9–18 digits"
	}
	return ""
}

func ValidateAccommodation(value string) string {
	switch value {
	case "Y", "N":
		return ""
	}
	return "Choose Y or N"
}
