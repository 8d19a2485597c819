package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fanshorts/internal/domain"
)

type characterVariantResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type characterImageResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type characterResponse struct {
	ID       string                     `json:"id"`
	Name     string                     `json:"name"`
	ImageURL string                     `json:"imageUrl"`
	Variants []characterVariantResponse `json:"variants"`
	Uploads  []characterImageResponse   `json:"uploads"`
}

// CharactersList returns the roster with built-in variants and uploaded
// alternates merged per character.
func (a *App) CharactersList(w http.ResponseWriter, r *http.Request) {
	out := make([]characterResponse, 0, len(domain.Characters))
	for i := range domain.Characters {
		c := &domain.Characters[i]
		resp := characterResponse{
			ID:       c.ID,
			Name:     c.Name,
			ImageURL: c.ImageURL,
			Variants: make([]characterVariantResponse, 0, len(c.Variants)),
			Uploads:  []characterImageResponse{},
		}
		for _, v := range c.Variants {
			resp.Variants = append(resp.Variants, characterVariantResponse{ID: v.ID, URL: v.URL})
		}
		uploads, err := a.Library.ListCharacterImages(r.Context(), c.ID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		for j := range uploads {
			resp.Uploads = append(resp.Uploads, characterImageResponse{
				ID:        uploads[j].ID,
				Name:      uploads[j].Name,
				URL:       uploads[j].PublicURL,
				CreatedAt: uploads[j].CreatedAt,
			})
		}
		out = append(out, resp)
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

// CharacterImagesCreate uploads an alternate image for a roster character.
func (a *App) CharacterImagesCreate(w http.ResponseWriter, r *http.Request) {
	characterID := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, err := formFile(r, "image")
	if err != nil || file == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	c, err := a.Library.UploadCharacterImage(r.Context(), characterID, r.FormValue("name"), *file)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, characterImageResponse{
		ID:        c.ID,
		Name:      c.Name,
		URL:       c.PublicURL,
		CreatedAt: c.CreatedAt,
	})
}

// CharacterImagesDelete removes an uploaded character image.
func (a *App) CharacterImagesDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Library.DeleteCharacterImage(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"deleted": true})
}
