package domain

import (
	"fmt"
	"unicode/utf8"
)

// Widths of the free-text columns. Lengths count characters, as VARCHAR does.
const (
	maxNameLength  = 100
	maxEmailLength = 255
	maxLevelLength = 20

	// MaxSourceLength bounds the caller-supplied checkpoint tag.
	MaxSourceLength = 100
)

func checkLength(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return ErrValidationFailed.WithError(fmt.Errorf("%s is %d characters, maximum is %d", field, n, max))
	}
	return nil
}

// Truncate shortens s to at most max characters.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
