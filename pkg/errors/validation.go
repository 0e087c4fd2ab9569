package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits applied to user-supplied journal data.
const (
	MaxEntryLength  = 10000
	MaxLabelLength  = 40
	MaxUserIDLength = 128
)

// ValidateEntryText validates the body of a journal entry.
//
// The validation rules are:
//   - No empty or whitespace-only text
//   - Maximum length of MaxEntryLength characters
//   - No null bytes or control characters other than newline and tab
func ValidateEntryText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidInput, "entry text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxEntryLength {
		return New(ErrCodeInvalidInput, "entry text too long (%d characters, max %d)", n, MaxEntryLength)
	}
	for _, r := range text {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entry text contains invalid control characters")
		}
	}
	return nil
}

// emotionLabelRegex matches emotion names: letters, spaces and hyphens.
var emotionLabelRegex = regexp.MustCompile(`^\p{L}[\p{L} -]*$`)

// ValidateEmotionLabel validates a single emotion label such as "Joy" or "Self-doubt".
func ValidateEmotionLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "emotion label cannot be empty")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return New(ErrCodeInvalidInput, "emotion label too long (max %d characters)", MaxLabelLength)
	}
	if !emotionLabelRegex.MatchString(label) {
		return New(ErrCodeInvalidInput, "invalid emotion label: %q", label)
	}
	return nil
}

// ValidateUserID validates an identity-provider user ID.
// It rejects identifiers that could be used for key injection in caches.
func ValidateUserID(id string) error {
	if id == "" {
		return New(ErrCodeUnauthorized, "user id cannot be empty")
	}
	if len(id) > MaxUserIDLength {
		return New(ErrCodeInvalidInput, "user id too long (max %d characters)", MaxUserIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "user id contains invalid characters")
		}
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "user id cannot contain path traversal sequences (..)")
	}
	return nil
}
