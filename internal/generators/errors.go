package generators

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const snippetLength = 200

// ProviderError is the failure cause of one image generation call. The
// message is taken from the vendor's error envelope when there is one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func newProviderError(provider string, status int, format string, args ...interface{}) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

// EmptyResponseError: the vendor answered with an empty body.
type EmptyResponseError struct {
	*ProviderError
}

func (e *EmptyResponseError) Unwrap() error { return e.ProviderError }

func newEmptyResponse(provider string, status int) error {
	return &EmptyResponseError{newProviderError(provider, status, "empty response (HTTP %d)", status)}
}

// MalformedResponseError: the body was not JSON. Snippet holds its beginning.
type MalformedResponseError struct {
	*ProviderError
	Snippet string
}

func (e *MalformedResponseError) Unwrap() error { return e.ProviderError }

func newMalformedResponse(provider string, status int, body []byte) error {
	snippet := truncate(string(body), snippetLength)
	return &MalformedResponseError{
		ProviderError: newProviderError(provider, status, "unable to parse response: %s", snippet),
		Snippet:       snippet,
	}
}

// UnrecognizedResponseShapeError: valid JSON, but no known success shape matched.
type UnrecognizedResponseShapeError struct {
	*ProviderError
}

func (e *UnrecognizedResponseShapeError) Unwrap() error { return e.ProviderError }

func newUnrecognizedShape(provider string, status int) error {
	return &UnrecognizedResponseShapeError{newProviderError(provider, status, "no image found in response")}
}

// GenerationTimeoutError: a submitted task never reached a terminal status.
type GenerationTimeoutError struct {
	*ProviderError
	Attempts int
	Interval time.Duration
}

func (e *GenerationTimeoutError) Unwrap() error { return e.ProviderError }

func newGenerationTimeout(provider string, attempts int, interval time.Duration) error {
	return &GenerationTimeoutError{
		ProviderError: newProviderError(provider, 0, "generation timed out after %d polls every %s", attempts, interval),
		Attempts:      attempts,
		Interval:      interval,
	}
}

// UnknownProviderError: no adapter is registered for the id.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
