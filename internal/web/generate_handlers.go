package web

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/models"
	"popup-storybook/server/internal/prompts"
)

// GenerateImageRequest is the body of POST /api/generate.
type GenerateImageRequest struct {
	Story    string `json:"story"`
	Style    string `json:"style"`
	Provider string `json:"provider"`
}

type GenerateImageResponse struct {
	ID             uint   `json:"id"`
	ImageURL       string `json:"image_url"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	RevisedPrompt  string `json:"revised_prompt"`
}

// GenerateImage renders a single illustration and saves it to the gallery.
func (h *Handlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req GenerateImageRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	switch {
	case strings.TrimSpace(req.Story) == "":
		h.handleError(w, r, apperr.Validation("story is required"))
		return
	case req.Style == "":
		h.handleError(w, r, apperr.Validation("style is required"))
		return
	case req.Provider == "":
		h.handleError(w, r, apperr.Validation("provider is required"))
		return
	}

	ctx := r.Context()
	cfg, err := h.store.GetProviderConfig(ctx, req.Provider)
	if apperr.IsNotFound(err) {
		h.handleError(w, r, &apperr.ConfigurationMissingError{Provider: req.Provider})
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	enhanced := prompts.Enhance(req.Story, req.Style)
	res, err := h.images.Dispatch(ctx, req.Provider, &interfaces.GenerationRequest{
		Prompt:  enhanced,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ModelName,
		Size:    h.imageSize,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	img := &models.Image{
		Story:          req.Story,
		Style:          req.Style,
		Provider:       req.Provider,
		ImageURL:       res.URL,
		EnhancedPrompt: enhanced,
		RevisedPrompt:  res.RevisedPrompt,
	}
	if err := h.store.CreateImage(ctx, img); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logger.Info("image generated", zap.Uint("image_id", img.ID), zap.String("provider", req.Provider))

	writeSuccess(w, http.StatusOK, GenerateImageResponse{
		ID:             img.ID,
		ImageURL:       res.URL,
		EnhancedPrompt: enhanced,
		RevisedPrompt:  res.RevisedPrompt,
	})
}

// GetProviders reports which providers have stored credentials.
func (h *Handlers) GetProviders(w http.ResponseWriter, r *http.Request) {
	configured, err := h.store.ListConfiguredProviders(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if configured == nil {
		configured = []string{}
	}
	writeSuccess(w, http.StatusOK, map[string][]string{
		"configuredProviders": configured,
		"supportedProviders":  h.images.Names(),
	})
}
