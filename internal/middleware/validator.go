package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateAnalyzer checks if the analyzer name is in the allowed list
func ValidateAnalyzer(name string) error {
	allowed := map[string]bool{
		"eslint":        true,
		"bandit":        true,
		"custompattern": true,
		"semgrep":       true,
	}

	if !allowed[strings.ToLower(name)] {
		return fmt.Errorf("invalid analyzer: %s (allowed: ESLint, Bandit, CustomPattern, Semgrep)", name)
	}
	return nil
}

// ValidateCategory checks if the category is in the allowed list
func ValidateCategory(category string) error {
	allowed := map[string]bool{
		"security":    true,
		"performance": true,
		"quality":     true,
	}

	if !allowed[strings.ToLower(category)] {
		return fmt.Errorf("invalid category: %s (allowed: security, performance, quality)", category)
	}
	return nil
}

// ValidateProjectPath validates the project root path
func ValidateProjectPath(path string) error {
	if path == "" {
		return fmt.Errorf("project path cannot be empty")
	}

	cleaned := filepath.Clean(path)

	// Block path traversal attempts
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("path traversal detected")
	}

	// Block sensitive directories
	blocked := []string{"/etc", "/proc", "/sys", "/dev", "/boot"}
	for _, b := range blocked {
		if strings.HasPrefix(cleaned, b) {
			return fmt.Errorf("access to %s is not allowed", b)
		}
	}

	// Block dangerous patterns
	dangerous := []string{"$(", "`", "&", "|", ";", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(path, d) {
			return fmt.Errorf("invalid characters in path")
		}
	}

	return nil
}

// ValidateFilePath validates a selected file path relative to the project
func ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("path traversal detected")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateRunID validates an analysis run or batch identifier
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	pattern := `^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`
	matched, _ := regexp.MatchString(pattern, id)
	if !matched {
		return fmt.Errorf("invalid id format")
	}

	return nil
}
