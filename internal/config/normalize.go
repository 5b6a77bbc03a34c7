package config

import (
	"regexp"
	"strings"
)

const DefaultAgentKey = "default"

var (
	validKeyRe   = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	invalidChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	leadingDash  = regexp.MustCompile(`^-+`)
	trailingDash = regexp.MustCompile(`-+$`)
)

// NormalizeAgentKey converts a user-provided name into a valid agent key:
// lowercase, max 64 chars, only [a-z0-9_-], invalid characters collapsed
// to "-", leading/trailing dashes stripped, empty result defaulting to
// "default".
func NormalizeAgentKey(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DefaultAgentKey
	}

	lower := strings.ToLower(trimmed)
	if validKeyRe.MatchString(lower) {
		return lower
	}

	result := invalidChars.ReplaceAllString(lower, "-")
	result = leadingDash.ReplaceAllString(result, "")
	result = trailingDash.ReplaceAllString(result, "")

	if len(result) > 64 {
		result = result[:64]
	}

	if result == "" {
		return DefaultAgentKey
	}
	return result
}
