package generators

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/metrics"
)

// Registry maps provider ids to adapters. It is built once at startup and
// read concurrently afterwards.
type Registry struct {
	providers map[string]interfaces.ImageProvider
	logger    *zap.Logger
}

// DefaultProviders returns one adapter per supported vendor.
func DefaultProviders(httpClient *http.Client, poller Poller, logger *zap.Logger) []interfaces.ImageProvider {
	return []interfaces.ImageProvider{
		NewOpenAIClient(httpClient),
		NewDoubaoClient(httpClient),
		NewZhipuClient(httpClient),
		NewStabilityClient(httpClient),
		NewGeminiClient(httpClient, logger),
		NewTongyiClient(httpClient, poller),
		NewReplicateClient(httpClient, poller),
	}
}

func NewRegistry(logger *zap.Logger, providers ...interfaces.ImageProvider) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		providers: make(map[string]interfaces.ImageProvider, len(providers)),
		logger:    logger,
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(provider string) (interfaces.ImageProvider, error) {
	p, ok := r.providers[provider]
	if !ok {
		return nil, &UnknownProviderError{Provider: provider}
	}
	return p, nil
}

func (r *Registry) Supports(provider string) bool {
	_, ok := r.providers[provider]
	return ok
}

// Names lists the registered provider ids, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch validates the request and hands it to the provider's adapter.
func (r *Registry) Dispatch(ctx context.Context, provider string, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	p, err := r.Get(provider)
	if err != nil {
		return nil, err
	}
	if req.Size == "" {
		req.Size = interfaces.DefaultImageSize
	}
	req.Provider = provider
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := p.Generate(ctx, req)
	metrics.ImageGenerationDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ImageGenerations.WithLabelValues(provider, outcome(err)).Inc()
		r.logger.Warn("image generation failed",
			zap.String("provider", provider),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	metrics.ImageGenerations.WithLabelValues(provider, "success").Inc()
	r.logger.Debug("image generated",
		zap.String("provider", provider),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func outcome(err error) string {
	var timeout *GenerationTimeoutError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &timeout):
		return "timeout"
	default:
		return "error"
	}
}
