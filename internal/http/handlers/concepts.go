package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fanshorts/internal/domain"
)

type conceptImageResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func toConceptImageResponse(c *domain.ConceptImage) conceptImageResponse {
	return conceptImageResponse{
		ID:        c.ID,
		Name:      c.Name,
		URL:       c.PublicURL,
		CreatedAt: c.CreatedAt,
	}
}

// ConceptsCreate uploads a new concept reference image.
func (a *App) ConceptsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, err := formFile(r, "image")
	if err != nil || file == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	c, err := a.Library.UploadConceptImage(r.Context(), r.FormValue("name"), *file)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toConceptImageResponse(c))
}

// ConceptsList returns the concept image library.
func (a *App) ConceptsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Library.ListConceptImages(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]conceptImageResponse, 0, len(items))
	for i := range items {
		out = append(out, toConceptImageResponse(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

// ConceptsRename updates a concept image's display name.
func (a *App) ConceptsRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	c, err := a.Library.RenameConceptImage(r.Context(), id, req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toConceptImageResponse(c))
}

// ConceptsDelete removes a concept image, detaching referencing generations.
func (a *App) ConceptsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Library.DeleteConceptImage(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"deleted": true})
}
