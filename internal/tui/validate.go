package tui

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/leonardotrapani/audiodiary/internal/language"
)

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

// validateLanguage accepts an empty string (auto-detect) or a code Whisper
// knows.
func validateLanguage(s string) error {
	if language.Valid(s) {
		return nil
	}
	return fmt.Errorf("use a code like 'en' or leave empty for auto-detect")
}

func validateIntMin(lo int) func(string) error {
	return func(s string) error {
		n, err := parseInt(s)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < lo {
			return fmt.Errorf("must be at least %d", lo)
		}
		return nil
	}
}

func validateFloatRange(lo, hi float32) func(string) error {
	return func(s string) error {
		f, err := parseFloat(s)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if f < lo || f > hi {
			return fmt.Errorf("must be between %s and %s", formatFloat(lo), formatFloat(hi))
		}
		return nil
	}
}

func validateEmail(s string) error {
	if s == "" {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("not an email address")
	}
	return nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	return float32(f), err
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
