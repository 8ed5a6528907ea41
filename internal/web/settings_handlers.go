package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/models"
)

// CredentialsRequest is the body of the api-key and llm-config PUT routes.
type CredentialsRequest struct {
	APIKey    string `json:"apiKey"`
	BaseURL   string `json:"baseUrl"`
	ModelName string `json:"modelName"`
}

func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, settings)
}

func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.store.GetSetting(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, setting.Value)
}

func (h *Handlers) PutSetting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value *string `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.handleError(w, r, err)
		return
	}
	if body.Value == nil {
		h.handleError(w, r, apperr.Validation("value is required"))
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.store.PutSetting(r.Context(), key, *body.Value); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"key": key, "value": *body.Value})
}

func (h *Handlers) GetLLMConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetLLMConfig(r.Context())
	if err != nil && !apperr.IsNotFound(err) {
		h.handleError(w, r, err)
		return
	}
	if cfg == nil || cfg.APIKey == "" {
		baseURL, model := models.DefaultLLMBaseURL, models.DefaultLLMModel
		if cfg != nil {
			baseURL, model = cfg.BaseURL, cfg.ModelName
		}
		writeSuccess(w, http.StatusOK, map[string]interface{}{
			"configured": false,
			"baseUrl":    baseURL,
			"modelName":  model,
		})
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"configured": true,
		"masked":     MaskKey(cfg.APIKey),
		"baseUrl":    cfg.BaseURL,
		"modelName":  cfg.ModelName,
	})
}

func (h *Handlers) SaveLLMConfig(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if req.APIKey == "" {
		h.handleError(w, r, apperr.Validation("apiKey is required"))
		return
	}

	err := h.store.SaveLLMConfig(r.Context(), &models.LLMConfig{
		APIKey:    req.APIKey,
		BaseURL:   req.BaseURL,
		ModelName: req.ModelName,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"configured": true})
}

func (h *Handlers) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	providers, err := h.store.ListConfiguredProviders(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if providers == nil {
		providers = []string{}
	}
	writeSuccess(w, http.StatusOK, providers)
}

func (h *Handlers) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetProviderConfig(r.Context(), chi.URLParam(r, "provider"))
	if apperr.IsNotFound(err) {
		writeSuccess(w, http.StatusOK, map[string]bool{"configured": false})
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"configured": true,
		"masked":     MaskKey(cfg.APIKey),
		"baseUrl":    cfg.BaseURL,
		"modelName":  cfg.ModelName,
	})
}

func (h *Handlers) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if req.APIKey == "" {
		h.handleError(w, r, apperr.Validation("apiKey is required"))
		return
	}

	provider := chi.URLParam(r, "provider")
	err := h.store.SaveProviderConfig(r.Context(), &models.ProviderConfig{
		Provider:  provider,
		APIKey:    req.APIKey,
		BaseURL:   req.BaseURL,
		ModelName: req.ModelName,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"provider": provider, "configured": true})
}

func (h *Handlers) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProviderConfig(r.Context(), chi.URLParam(r, "provider")); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
