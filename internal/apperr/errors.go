// Package apperr holds the request-level errors shared by the service and
// HTTP layers.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input shape or range. Its message is shown
// to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationMissingError names the configuration that has no API key.
type ConfigurationMissingError struct {
	// Provider is empty when the LLM configuration is the missing piece.
	Provider string
}

func (e *ConfigurationMissingError) Error() string {
	if e.Provider == "" {
		return "LLM (story generation) API key is not configured"
	}
	return fmt.Sprintf("API key for provider %q is not configured", e.Provider)
}

type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
