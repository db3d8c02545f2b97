// Package masking redacts identifiers before they are persisted.
package masking

import "strings"

const maskToken = "****"

// MaskSecret keeps only the last four characters of value.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskText replaces every occurrence of secret in text.
func MaskText(text, secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" || text == "" {
		return text
	}
	return strings.ReplaceAll(text, secret, MaskSecret(secret))
}
