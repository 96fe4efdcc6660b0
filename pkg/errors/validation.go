package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxFilenameLength bounds export filenames accepted from config or requests.
const maxFilenameLength = 255

// ValidateFilename checks that name is a plain file name suitable for an
// export attachment: non-empty, no directory components, no control characters.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}
	if len(name) > maxFilenameLength {
		return New(ErrCodeInvalidPath, "filename too long (max %d characters)", maxFilenameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid characters")
		}
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "filename cannot be %q", name)
	}
	return nil
}

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(allowed, ", "))
}
