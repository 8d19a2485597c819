package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fanshorts/internal/domain"
	"fanshorts/internal/service"
)

type motionVideoResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Duration     float64   `json:"duration"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (a *App) toMotionVideoResponse(v *domain.MotionVideo) motionVideoResponse {
	resp := motionVideoResponse{
		ID:        v.ID,
		Name:      v.Name,
		URL:       a.Library.PublicURL(v.StoragePath),
		Duration:  v.Duration,
		CreatedAt: v.CreatedAt,
	}
	if v.ThumbnailPath != "" {
		resp.ThumbnailURL = a.Library.PublicURL(v.ThumbnailPath)
	}
	return resp
}

// MotionsCreate uploads a new motion reference clip.
func (a *App) MotionsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, err := formFile(r, "video")
	if err != nil || file == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "video file is required")
		return
	}
	thumbnail, err := formFile(r, "thumbnail")
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid thumbnail part")
		return
	}
	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)

	mv, err := a.Library.UploadMotionVideo(r.Context(), service.UploadMotionVideoInput{
		Name:      r.FormValue("name"),
		Duration:  duration,
		File:      *file,
		Thumbnail: thumbnail,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, a.toMotionVideoResponse(mv))
}

// MotionsList returns the motion clip library.
func (a *App) MotionsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Library.ListMotionVideos(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]motionVideoResponse, 0, len(items))
	for i := range items {
		out = append(out, a.toMotionVideoResponse(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

type renameRequest struct {
	Name string `json:"name"`
}

// MotionsRename updates a clip's display name.
func (a *App) MotionsRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mv, err := a.Library.RenameMotionVideo(r.Context(), id, req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.toMotionVideoResponse(mv))
}

// MotionsDelete removes a clip; the last remaining clip is protected.
func (a *App) MotionsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Library.DeleteMotionVideo(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"deleted": true})
}

// MotionsPresets lists the Higgsfield motion presets.
func (a *App) MotionsPresets(w http.ResponseWriter, r *http.Request) {
	motions, err := a.Higgsfield.ListMotions(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": motions})
}
