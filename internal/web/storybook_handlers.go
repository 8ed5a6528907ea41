package web

import (
	"net/http"

	"popup-storybook/server/internal/generators"
	"popup-storybook/server/internal/prompts"
	"popup-storybook/server/internal/storybook"
)

const (
	defaultSceneCount = 4
	defaultProvider   = "openai"
)

// GenerateStorybookRequest is the body of POST /api/storybook/generate.
// Omitted fields get defaults.
type GenerateStorybookRequest struct {
	Theme      string `json:"theme"`
	SceneCount *int   `json:"sceneCount"`
	Style      string `json:"style"`
	Provider   string `json:"provider"`
}

func (req *GenerateStorybookRequest) toCreate() storybook.CreateRequest {
	out := storybook.CreateRequest{
		Theme:      req.Theme,
		SceneCount: defaultSceneCount,
		Style:      req.Style,
		Provider:   req.Provider,
	}
	if req.SceneCount != nil {
		out.SceneCount = *req.SceneCount
	}
	if out.Style == "" {
		out.Style = prompts.DefaultStyle
	}
	if out.Provider == "" {
		out.Provider = defaultProvider
	}
	return out
}

func (h *Handlers) ListStorybooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.storybooks.List(r.Context(), r.URL.Query().Get("favorites") == "true")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, books)
}

func (h *Handlers) GenerateStorybook(w http.ResponseWriter, r *http.Request) {
	var req GenerateStorybookRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.storybooks.Create(r.Context(), req.toCreate())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handlers) GetStorybook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	book, err := h.storybooks.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, book)
}

func (h *Handlers) GetStorybookStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	snap, err := h.storybooks.Status(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, snap)
}

func (h *Handlers) ToggleStorybookFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	favorite, err := h.storybooks.ToggleFavorite(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

func (h *Handlers) DeleteStorybook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.storybooks.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// GetStyles lists the illustration styles.
func (h *Handlers) GetStyles(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, prompts.Styles())
}

var _ ProviderCatalog = (*generators.Registry)(nil)
