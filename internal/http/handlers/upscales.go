package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fanshorts/internal/domain"
)

type upscaleRequest struct {
	Model      string `json:"model"`
	Resolution string `json:"resolution"`
}

// UpscalesCreate starts the upscale sub-lifecycle on a completed generation.
func (a *App) UpscalesCreate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req upscaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Model == "" {
		req.Model = string(domain.UpscaleModelRealESRGAN)
	}
	g, err := a.Generations.SubmitUpscale(r.Context(), id, domain.UpscaleModel(req.Model), req.Resolution)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, toGenerationResponse(g))
}

// UpscalesGet polls the upscale sub-lifecycle.
func (a *App) UpscalesGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := a.Generations.PollUpscale(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}
