package interfaces

import (
	"context"
	"regexp"
	"strings"

	"popup-storybook/server/internal/apperr"
)

// DefaultImageSize is used when a request carries no size.
const DefaultImageSize = "1024x1024"

var sizePattern = regexp.MustCompile(`^\d+x\d+$`)

// GenerationRequest is the vendor-neutral image request
type GenerationRequest struct {
	Prompt   string
	Provider string
	APIKey   string
	BaseURL  string // overrides the vendor default when set
	Model    string // vendor default when empty
	Size     string // "WIDTHxHEIGHT"
}

// Validate checks the fields every vendor depends on.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return apperr.Validation("prompt is required")
	}
	if r.APIKey == "" {
		return apperr.Validation("api key is required")
	}
	if !sizePattern.MatchString(r.Size) {
		return apperr.Validation("size %q must look like 1024x1024", r.Size)
	}
	return nil
}

// GenerationResult is the normalized output of every vendor: an HTTP URL or
// a data URI, plus the prompt the vendor reports it actually used.
type GenerationResult struct {
	URL           string
	RevisedPrompt string
}

// ImageProvider is implemented by one adapter per image vendor
type ImageProvider interface {
	Name() string
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// ImageDispatcher routes a request to the adapter registered for a provider id.
type ImageDispatcher interface {
	Dispatch(ctx context.Context, provider string, req *GenerationRequest) (*GenerationResult, error)
	Supports(provider string) bool
}
