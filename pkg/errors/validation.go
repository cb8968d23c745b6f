package errors

import (
	"strings"
	"unicode"
)

// ValidateFormat checks that format is one of the supported image formats.
func ValidateFormat(format string, supported map[string]bool) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !supported[format] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
	return nil
}

// ValidatePath validates a file path given on the command line or in config.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateLinkPrefix validates a directory prefix written into image links.
// Links are relative to the output document, so absolute prefixes and
// backslashes are rejected.
func ValidateLinkPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if err := ValidatePath(prefix); err != nil {
		return err
	}
	if strings.Contains(prefix, "\\") {
		return New(ErrCodeInvalidPath, "link prefix cannot contain backslashes")
	}
	if strings.Contains(prefix, "://") {
		return New(ErrCodeInvalidPath, "link prefix must be a relative path, not a URL")
	}
	return nil
}
