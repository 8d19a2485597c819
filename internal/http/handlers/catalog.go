package handlers

import (
	"net/http"

	"fanshorts/internal/domain"
)

type trackResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Src   string `json:"src"`
	Cover string `json:"cover"`
}

// TracksList returns the music catalog.
func (a *App) TracksList(w http.ResponseWriter, r *http.Request) {
	out := make([]trackResponse, 0, len(domain.Tracks))
	for _, t := range domain.Tracks {
		out = append(out, trackResponse{ID: t.ID, Title: t.Title, Src: t.Src, Cover: t.Cover})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
