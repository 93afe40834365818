package entityform

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
)

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateSelected(fieldName string) func(int64) error {
	return func(id int64) error {
		if id <= 0 {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateMinutes(s string) error {
	_, err := parseMinutes("value", s)
	return err
}

func validatePrice(s string) error {
	_, err := parsePrice("value", s)
	return err
}

func validateOptionalEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// parseMinutes parses an optional non-negative whole number of minutes.
func parseMinutes(fieldName, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a whole number of minutes", fieldName)
	}
	return &n, nil
}

// parsePrice parses an optional non-negative amount. A comma is accepted
// as the decimal separator.
func parsePrice(fieldName, s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", fieldName)
	}
	return f, nil
}
