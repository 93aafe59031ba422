package common

import "strings"

// NormalizeToken canonicalises a token symbol to its trimmed uppercase form.
// Symbols are restricted to 1-8 ASCII letters so they can double as storage
// key segments.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", Validationf("token symbol must not be empty")
	}
	if len(trimmed) > 8 {
		return "", Validationf("token symbol too long: %s", trimmed)
	}
	for _, r := range trimmed {
		if r < 'A' || r > 'Z' {
			return "", Validationf("token symbol contains invalid character: %s", trimmed)
		}
	}
	return trimmed, nil
}
