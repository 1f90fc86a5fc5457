package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxMachineNameLen = 128
	minBranchCodeLen  = 2
	maxBranchCodeLen  = 10
)

var (
	ErrEmpty   = errors.New("value is empty")
	ErrTooLong = errors.New("value is too long")
)

// MachineName trims a machine display name and collapses inner whitespace,
// so "  Washer   3 " and "Washer 3" name the same machine.
func MachineName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(name) > maxMachineNameLen {
		return "", fmt.Errorf("machine name %q: %w", name, ErrTooLong)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("machine name %q contains control characters", name)
		}
	}
	return name, nil
}

// BranchCode normalises a branch code to upper case and checks its length.
func BranchCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrEmpty
	}
	n := utf8.RuneCountInString(code)
	if n < minBranchCodeLen || n > maxBranchCodeLen {
		return "", fmt.Errorf("branch code must be %d-%d characters, got %d", minBranchCodeLen, maxBranchCodeLen, n)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return "", fmt.Errorf("branch code %q has invalid character %q", code, r)
		}
	}
	return code, nil
}
