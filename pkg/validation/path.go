// Package validation provides input validation for names that end up in file
// paths and URLs. These functions implement defense-in-depth against path
// traversal.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Identifier validation for catalog entries:
// - Lowercase letters and digits only
// - Used verbatim as an asset file name and inside public URLs
var identifierRegex = regexp.MustCompile(`^[a-z0-9]+$`)

// Service name validation per compose conventions:
// - Must start with an alphanumeric character
// - Letters, digits, dots, underscores and hyphens after that
var serviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// MaxIdentifierLength is the maximum allowed length for an identifier.
const MaxIdentifierLength = 64

// ValidateIdentifier validates a catalog entry identifier.
// Returns an error if the identifier is empty, too long or could escape an
// asset directory.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("identifier too long: %d chars (max %d)", len(id), MaxIdentifierLength)
	}

	// Check for path traversal attempts
	if strings.Contains(id, "..") {
		return fmt.Errorf("identifier contains path traversal sequence")
	}

	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("invalid identifier format: must contain only lowercase letters and digits")
	}

	return nil
}

// ValidatePathSegment checks that s can stand as a single path or URL
// segment: non-empty, no separators, no traversal, no whitespace or control
// characters, no query or fragment markers. Unlike ValidateIdentifier it does
// not enforce the allocator's alphabet.
func ValidatePathSegment(s string) error {
	if s == "" {
		return fmt.Errorf("segment cannot be empty")
	}
	if strings.Contains(s, "..") {
		return fmt.Errorf("segment %q contains path traversal sequence", s)
	}
	if strings.ContainsAny(s, "/\\?#") {
		return fmt.Errorf("segment %q contains a path or URL separator", s)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("segment %q contains whitespace or control characters", s)
		}
	}
	return nil
}

// ValidateServiceName validates the name a manifest's service is keyed by.
func ValidateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}

	if !serviceNameRegex.MatchString(name) {
		return fmt.Errorf("invalid service name %q: must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", name)
	}

	return nil
}

// ValidatePath sanitizes and validates a path component to prevent traversal attacks.
// Returns the cleaned path or an error if the path is unsafe.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Clean the path to normalize it
	cleanPath := filepath.Clean(path)

	// Check for path traversal after cleaning
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("path traversal not allowed")
	}

	// Reject absolute paths
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("absolute paths not allowed")
	}

	return cleanPath, nil
}

// ValidatePathWithinRoot validates that a constructed path stays within the root directory.
// This provides defense-in-depth after filepath.Join operations.
func ValidatePathWithinRoot(rootDir, fullPath string) error {
	cleanRoot := filepath.Clean(rootDir)
	cleanPath := filepath.Clean(fullPath)

	// Ensure the path starts with the root directory
	if !strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) && cleanPath != cleanRoot {
		return fmt.Errorf("path escapes root directory")
	}

	return nil
}
