package validation

import (
	"errors"
	"strings"
)

// ValidateUserName validates an optional display name. Empty is allowed.
func ValidateUserName(name string) error {
	if len(strings.TrimSpace(name)) > 100 {
		return errors.New("user name is too long (max 100 characters)")
	}

	return nil
}

// ValidateGoalTitle validates a required goal title.
func ValidateGoalTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return errors.New("title is required")
	}

	if len(trimmed) > 255 {
		return errors.New("title is too long (max 255 characters)")
	}

	return nil
}

// ValidateMessageContent rejects empty message bodies.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message content is required")
	}

	return nil
}
