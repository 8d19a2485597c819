package handlers

import (
	"encoding/json"
	"net/http"

	"fanshorts/internal/service"
)

type imageGenerateRequest struct {
	Prompt         string `json:"prompt"`
	MemberID       string `json:"memberId"`
	VariantID      string `json:"variantId"`
	ConceptImageID string `json:"conceptImageId"`
	ReferenceType  string `json:"referenceType"`
}

// ImagesCreate submits an image generation.
func (a *App) ImagesCreate(w http.ResponseWriter, r *http.Request) {
	var req imageGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	g, err := a.Generations.SubmitImage(r.Context(), service.SubmitImageInput{
		Prompt:         req.Prompt,
		MemberID:       req.MemberID,
		VariantID:      req.VariantID,
		ConceptImageID: req.ConceptImageID,
		ReferenceType:  req.ReferenceType,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toGenerationResponse(g))
}
