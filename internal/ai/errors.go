package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials means the pool was constructed with zero API keys.
	ErrNoCredentials = errors.New("no OpenAI API key configured")

	// ErrRetriesExhausted is the fallback failure when the attempt loop ends
	// without a more specific terminal condition.
	ErrRetriesExhausted = errors.New("request failed after all retry attempts")
)

// RateLimitError reports that every retry attempt was answered with HTTP 429.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("OpenAI API rate limit exceeded after %d attempts", e.Attempts)
}

// RequestError reports a failed API call: a non-429 HTTP error carrying the
// provider's message, or a transport failure once retries ran out.
type RequestError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is a rate-limit failure.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsRequestFailed reports whether err is a terminal request failure.
func IsRequestFailed(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
