// Package sanitize provides shared identifier sanitization for session ids
// and collection name components.
//
// Session ids become filenames and collection components become vector store
// collection names, so both must be reduced to a safe character set before
// use.
package sanitize

import "strings"

const (
	// MaxIdentifierLength is the maximum length for sanitized identifiers.
	MaxIdentifierLength = 64

	// DefaultIdentifier is used when sanitization produces an empty result.
	DefaultIdentifier = "unknown"
)

// SessionID sanitizes a session identifier for use as a filename component.
//
// Rules applied:
//   - Keeps letters, digits, '-' and '_'; drops everything else
//   - Truncates to MaxIdentifierLength
//   - Returns DefaultIdentifier if the result would be empty
//
// The mapping is deterministic: the same input always yields the same
// output, so a session id maps to a stable state file path.
func SessionID(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result.WriteRune(r)
		}
	}

	sanitized := result.String()
	if sanitized == "" {
		return DefaultIdentifier
	}
	if len(sanitized) > MaxIdentifierLength {
		sanitized = sanitized[:MaxIdentifierLength]
	}
	return sanitized
}

// Identifier sanitizes a string for use in collection names.
//
// Collection names in Qdrant must match ^[a-z0-9_]{1,64}$, so this is
// stricter than SessionID: lowercase only, invalid runes become
// underscores, runs of underscores collapse.
func Identifier(s string) string {
	s = strings.ToLower(s)

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}

	sanitized := result.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return DefaultIdentifier
	}
	if len(sanitized) > MaxIdentifierLength {
		sanitized = sanitized[:MaxIdentifierLength]
	}
	return sanitized
}
