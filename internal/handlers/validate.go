package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for catalog and account fields.
const (
	maxNameLen        = 120
	maxTitleLen       = 300
	maxDescriptionLen = 50_000
	maxPriceCents     = 100_000_000 // 1M in major units; above this it's a typo
	minPasswordLen    = 8
	maxDisplayNameLen = 200
)

// validateCategory checks category inputs and returns the first error found.
func validateCategory(name, description string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 120 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 50,000 characters)."
	}
	return ""
}

// validateService checks service inputs and returns the first error found.
func validateService(title, description string, priceCents int) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 50,000 characters)."
	}
	if priceCents < 0 {
		return "Price cannot be negative."
	}
	if priceCents > maxPriceCents {
		return "Price is unreasonably large."
	}
	return ""
}

// validateRegistration checks account registration inputs.
func validateRegistration(email, password, displayName string) string {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "A valid email address is required."
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "Display name is required."
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "Display name is too long (max 200 characters)."
	}
	return ""
}
