package database

import "strings"

// NormalizeEmail lowercases and trims an email so account lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
