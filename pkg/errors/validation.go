package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// hexColorRegex matches #rgb and #rrggbb colours.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor accepts a hex colour or the keyword "random".
func ValidateColor(c string) error {
	if c == "random" || hexColorRegex.MatchString(c) {
		return nil
	}
	return New(ErrCodeInvalidColor, "color must be #rgb, #rrggbb or \"random\", got %q", c)
}

// nodeIDRegex matches dotted node ids such as "root" or "root.0.2".
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*(\.[0-9]+)*$`)

// ValidateNodeID validates a dotted entity id.
func ValidateNodeID(id string) error {
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid node id %q", id)
	}
	return nil
}
