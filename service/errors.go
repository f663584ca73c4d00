package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a contract does not exist or is not visible
// to the requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("contract not found")

// ErrContentTooShort is returned when neither extraction nor the metadata
// fallback produced enough text to analyze. Not retryable without a new
// upload.
var ErrContentTooShort = errors.New("contract text too short for analysis")

// AIServiceError reports a failed call to the chat-completion API. Status
// carries the upstream HTTP status when one was received, 0 for transport
// failures and timeouts.
type AIServiceError struct {
	Status  int
	Message string
}

func (e *AIServiceError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("AI service error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("AI service error: %s", e.Message)
}
