package handlers

import (
	"net/http"
)

// StatsSummary returns counter totals across all days and countries.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := a.Analytics.Summary(r.Context())
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"counters": totals})
}
