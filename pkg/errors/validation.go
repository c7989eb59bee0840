package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// Field limits shared by the API and CLI surfaces.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxNodeIDLen      = 128
	maxLabelLen       = 500

	// MinGenerationDepth and friends bound LLM generation parameters.
	MinGenerationDepth = 1
	MaxGenerationDepth = 5
	MinMaxChildren     = 1
	MaxMaxChildren     = 20
)

// Generation styles accepted by the LLM endpoints.
const (
	StyleComprehensive = "comprehensive"
	StyleSimple        = "simple"
	StyleDetailed      = "detailed"
)

// ValidateTitle validates a mindmap title or generation topic.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only titles
//   - No control characters
//   - Maximum length of 200 characters
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return New(ErrCodeInvalidTitle, "title cannot be empty")
	}

	if len(title) > maxTitleLen {
		return New(ErrCodeInvalidTitle, "title too long (max %d characters)", maxTitleLen)
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTitle, "title contains invalid control characters")
		}
	}

	return nil
}

// ValidateDescription validates an optional description field.
func ValidateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return New(ErrCodeInvalidInput, "description too long (max %d characters)", maxDescriptionLen)
	}
	return nil
}

// ValidateNodeLabel validates a node's display label.
func ValidateNodeLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return New(ErrCodeInvalidNode, "node label cannot be empty")
	}
	if len(label) > maxLabelLen {
		return New(ErrCodeInvalidNode, "node label too long (max %d characters)", maxLabelLen)
	}
	return nil
}

// ValidateNodeID validates a client-supplied node ID for safety.
// IDs are opaque strings, but they appear in URLs and storage keys, so
// control characters, path separators and traversal sequences are rejected.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node ID cannot be empty")
	}

	if len(id) > maxNodeIDLen {
		return New(ErrCodeInvalidNode, "node ID too long (max %d characters)", maxNodeIDLen)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node ID contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidNode, "node ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateGenerationDepth bounds the depth parameter of mindmap generation.
func ValidateGenerationDepth(depth int) error {
	if depth < MinGenerationDepth || depth > MaxGenerationDepth {
		return New(ErrCodeInvalidInput, "depth must be between %d and %d", MinGenerationDepth, MaxGenerationDepth)
	}
	return nil
}

// ValidateMaxChildren bounds the maxChildren parameter of node expansion.
func ValidateMaxChildren(n int) error {
	if n < MinMaxChildren || n > MaxMaxChildren {
		return New(ErrCodeInvalidInput, "maxChildren must be between %d and %d", MinMaxChildren, MaxMaxChildren)
	}
	return nil
}

// ValidateGenerationStyle validates the style parameter of mindmap generation.
func ValidateGenerationStyle(style string) error {
	switch style {
	case StyleComprehensive, StyleSimple, StyleDetailed:
		return nil
	default:
		return New(ErrCodeInvalidInput, "invalid generation style: %q", style)
	}
}

// emailRegex matches the practical subset of RFC 5322 addresses the service
// accepts. Full RFC validation is delegated to the mail provider.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return New(ErrCodeInvalidInput, "email cannot be empty")
	}
	if len(email) > 254 {
		return New(ErrCodeInvalidInput, "email too long")
	}
	if !emailRegex.MatchString(email) {
		return New(ErrCodeInvalidInput, "invalid email address: %q", email)
	}
	return nil
}

// usernameRegex matches usernames: letters, digits, underscore, hyphen.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// ValidateUsername validates a username.
func ValidateUsername(name string) error {
	if len(name) < 3 {
		return New(ErrCodeInvalidInput, "username too short (min 3 characters)")
	}
	if len(name) > 50 {
		return New(ErrCodeInvalidInput, "username too long (max 50 characters)")
	}
	if !usernameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "username may only contain letters, digits, underscore and hyphen")
	}
	return nil
}

// ValidatePassword validates a password. The upper bound is the bcrypt
// input limit of 72 bytes.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return New(ErrCodeInvalidInput, "password too short (min 8 characters)")
	}
	if len(password) > 72 {
		return New(ErrCodeInvalidInput, "password too long (max 72 bytes)")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
