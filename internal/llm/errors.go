package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion is returned when a provider answers successfully but
// without any reply text.
var ErrEmptyCompletion = errors.New("empty completion")

// ProviderError is returned when an LLM provider answers with a non-2xx status.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
