package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// StreamIDRegex validates stream ID format
	StreamIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// controlChars rejects control characters while allowing unicode names
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateStreamID validates stream ID
func ValidateStreamID(streamID string) error {
	if streamID == "" {
		return fmt.Errorf("stream ID is required")
	}
	if len(streamID) > 100 {
		return fmt.Errorf("stream ID is too long (max 100 characters)")
	}
	if !StreamIDRegex.MatchString(streamID) {
		return fmt.Errorf("invalid stream ID format")
	}
	return nil
}

// ValidateDisplayName validates a chat display name
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name is required")
	}
	if utf8.RuneCountInString(name) > 50 {
		return fmt.Errorf("display name is too long (max 50 characters)")
	}
	if controlChars.MatchString(name) {
		return fmt.Errorf("display name contains control characters")
	}
	return nil
}

// ValidateChatMessage validates chat message text against the configured bound
func ValidateChatMessage(text string, maxLen int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is required")
	}
	if utf8.RuneCountInString(text) > maxLen {
		return fmt.Errorf("message is too long (max %d characters)", maxLen)
	}
	return nil
}

// ValidateTipAmount validates a tip amount in tokens (0 = plain chat)
func ValidateTipAmount(amount, max int64) error {
	if amount < 0 {
		return fmt.Errorf("tip amount must be >= 0")
	}
	if max > 0 && amount > max {
		return fmt.Errorf("tip amount exceeds maximum (%d)", max)
	}
	return nil
}
