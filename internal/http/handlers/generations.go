package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fanshorts/internal/service"
)

// GenerationsCreate submits a motion video generation. The request is
// multipart: image and video inputs arrive as URLs or file parts.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	duration, _ := strconv.Atoi(r.FormValue("duration"))
	in := service.SubmitMotionVideoInput{
		Provider:       r.FormValue("provider"),
		MemberID:       r.FormValue("memberId"),
		MusicID:        r.FormValue("musicId"),
		MotionVideoID:  r.FormValue("motionVideoId"),
		MotionPresetID: r.FormValue("motionPresetId"),
		Prompt:         r.FormValue("prompt"),
		ImageURL:       r.FormValue("imageUrl"),
		VideoURL:       r.FormValue("videoUrl"),
		Duration:       duration,
	}

	imageFile, err := formFile(r, "image")
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid image part")
		return
	}
	in.ImageFile = imageFile

	videoFile, err := formFile(r, "video")
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid video part")
		return
	}
	in.VideoFile = videoFile

	g, err := a.Generations.SubmitMotionVideo(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toGenerationResponse(g))
}

// GenerationsList returns the gallery, newest first.
func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	items, err := a.Generations.List(r.Context(), limit, offset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]generationResponse, 0, len(items))
	for i := range items {
		out = append(out, toGenerationResponse(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

// GenerationsGet is the polling endpoint: each GET advances the lifecycle by
// one tick and returns the fresh record.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := a.Generations.Poll(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}

// GenerationsDelete removes a generation and its stored artifacts.
func (a *App) GenerationsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Generations.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"deleted": true})
}

type relinkRequest struct {
	MusicID        *string `json:"musicId"`
	MotionVideoID  *string `json:"motionVideoId"`
	ConceptImageID *string `json:"conceptImageId"`
}

// GenerationsPatchMusic re-links the selected music track.
func (a *App) GenerationsPatchMusic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req relinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MusicID == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "musicId is required")
		return
	}
	g, err := a.Generations.UpdateMusic(r.Context(), id, *req.MusicID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}

// GenerationsPatchMotion re-links the motion reference clip.
func (a *App) GenerationsPatchMotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req relinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MotionVideoID == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "motionVideoId is required")
		return
	}
	g, err := a.Generations.UpdateMotionVideo(r.Context(), id, *req.MotionVideoID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}

// GenerationsPatchConceptImage re-links the concept reference image.
func (a *App) GenerationsPatchConceptImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req relinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConceptImageID == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "conceptImageId is required")
		return
	}
	g, err := a.Generations.UpdateConceptImage(r.Context(), id, *req.ConceptImageID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}

// GenerationsDownload streams a zip of the generation's stored artifacts.
func (a *App) GenerationsDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	archive, filename, err := a.Generations.DownloadArchive(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
