package web

import (
	"net/http"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/models"
)

func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.ListImages(r.Context(), r.URL.Query().Get("favorites") == "true")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, images)
}

func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	img, err := h.store.GetImage(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, img)
}

// CreateImage stores an image produced elsewhere.
func (h *Handlers) CreateImage(w http.ResponseWriter, r *http.Request) {
	var img models.Image
	if err := decodeBody(r, &img); err != nil {
		h.handleError(w, r, err)
		return
	}
	if img.Story == "" || img.Style == "" || img.Provider == "" || img.ImageURL == "" {
		h.handleError(w, r, apperr.Validation("story, style, provider and image_url are required"))
		return
	}
	img.ID = 0
	img.IsFavorite = false

	if err := h.store.CreateImage(r.Context(), &img); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, img)
}

func (h *Handlers) ToggleImageFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	favorite, err := h.store.ToggleImageFavorite(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.store.DeleteImage(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handlers) BatchDeleteImages(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []uint `json:"ids"`
	}
	if err := decodeBody(r, &body); err != nil {
		h.handleError(w, r, err)
		return
	}
	if len(body.IDs) == 0 {
		h.handleError(w, r, apperr.Validation("ids is required"))
		return
	}

	deleted, err := h.store.DeleteImages(r.Context(), body.IDs)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
