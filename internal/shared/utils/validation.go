package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits
const (
	MaxJSONSize    = 1 * 1024 * 1024 // 1MB - maximum request body
	MaxSourceSize  = 256 * 1024      // 256KB - a single program
	MaxMessageSize = 16 * 1024       // 16KB - an error message sent to fix
)

// String length limits
const (
	MaxUsernameLength    = 64
	MaxPasswordLength    = 128
	MinPasswordLength    = 8
	MaxEmailLength       = 255
	MaxIDLength          = 128
	MaxDescriptionLength = 2048
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// EmailPattern is a basic email validation
	EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidationError names the field that failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if strings.TrimSpace(value) == "" {
		if required {
			return invalid(fieldName, "%s is required", capitalize(fieldName))
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return invalid(fieldName, "%s must be at least %d characters", capitalize(fieldName), minLen)
	}
	if length > maxLen {
		return invalid(fieldName, "%s must not exceed %d characters", capitalize(fieldName), maxLen)
	}
	if strings.Contains(value, "\x00") {
		return invalid(fieldName, "%s contains invalid characters", capitalize(fieldName))
	}
	return nil
}

// ValidateDescription validates the text a program is generated from.
func ValidateDescription(description string) error {
	return ValidateString(description, "description", 1, MaxDescriptionLength, true)
}

// ValidateSource validates program text before it is saved or fixed.
func ValidateSource(code string) error {
	if strings.TrimSpace(code) == "" {
		return invalid("code", "Animation code is required")
	}
	if len(code) > MaxSourceSize {
		return invalid("code", "Animation code exceeds %d bytes", MaxSourceSize)
	}
	return nil
}

// ValidateErrorMessage validates the failure text sent along with a fix.
func ValidateErrorMessage(message string) error {
	return ValidateString(message, "error_message", 1, MaxMessageSize, true)
}

// ValidateID validates an animation id
func ValidateID(id string) error {
	if id == "" {
		return invalid("id", "Animation ID is required")
	}
	if len(id) > MaxIDLength || !SafeIDPattern.MatchString(id) {
		return invalid("id", "Animation ID contains invalid characters")
	}
	return nil
}

// ValidateUsername validates a username
func ValidateUsername(username string) error {
	return ValidateString(username, "username", 1, MaxUsernameLength, true)
}

// ValidatePassword validates a password for registration
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "Password is required")
	}
	return ValidateString(password, "password", MinPasswordLength, MaxPasswordLength, true)
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength || !EmailPattern.MatchString(email) {
		return invalid("email", "Invalid email format")
	}
	return nil
}

// JoinErrors formats several validation failures as one message.
func JoinErrors(errs ...error) error {
	var parts []string
	for _, err := range errs {
		if err != nil {
			parts = append(parts, err.Error())
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &ValidationError{Message: strings.Join(parts, ", ")}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
