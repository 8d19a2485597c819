package handlers

import (
	"net/http"
	"strconv"

	"fanshorts/internal/service"
)

// ResultsCreate records a user-uploaded finished clip as a completed
// generation with no provider job attached.
func (a *App) ResultsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, err := formFile(r, "video")
	if err != nil || file == nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "video file is required")
		return
	}
	duration, _ := strconv.Atoi(r.FormValue("duration"))

	g, err := a.Generations.UploadResult(r.Context(), service.UploadResultInput{
		File:          *file,
		MemberID:      r.FormValue("memberId"),
		MusicID:       r.FormValue("musicId"),
		MotionVideoID: r.FormValue("motionVideoId"),
		Duration:      duration,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toGenerationResponse(g))
}
