package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinBrushSize = 1
	MaxBrushSize = 30
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// ColorRegex accepts #rgb and #rrggbb hex colors
	ColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

	// IDRegex validates opaque identifiers (user, collaborator, snapshot)
	IDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateDisplayName validates the name shown next to a cursor
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name contains invalid characters")
	}
	return ValidateStringLength(name, 1, 50, "name")
}

// ValidateColor validates a hex color such as #3b82f6
func ValidateColor(color string) error {
	if color == "" {
		return fmt.Errorf("color is required")
	}
	if !ColorRegex.MatchString(color) {
		return fmt.Errorf("invalid color %q (expected #rgb or #rrggbb)", color)
	}
	return nil
}

// ValidateBrushSize validates the stroke width
func ValidateBrushSize(size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("brush size must be a finite number")
	}
	if size < MinBrushSize || size > MaxBrushSize {
		return fmt.Errorf("brush size must be between %d and %d", MinBrushSize, MaxBrushSize)
	}
	return nil
}

// ValidateTool validates the drawing tool
func ValidateTool(tool string) error {
	switch tool {
	case "draw", "erase":
		return nil
	}
	return fmt.Errorf("invalid tool %q (must be draw or erase)", tool)
}

// ValidateCollaborationMode validates the collaboration mode
func ValidateCollaborationMode(mode string) error {
	switch mode {
	case "invite-only", "open", "view-only":
		return nil
	}
	return fmt.Errorf("invalid collaboration mode %q (must be invite-only, open, or view-only)", mode)
}

// ValidateTheme validates the UI theme setting
func ValidateTheme(theme string) error {
	switch theme {
	case "light", "dark", "system":
		return nil
	}
	return fmt.Errorf("invalid theme %q (must be light, dark, or system)", theme)
}

// ValidateID validates an opaque identifier
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > 100 {
		return fmt.Errorf("%s is too long (max 100 characters)", fieldName)
	}
	if !IDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s format", fieldName)
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
