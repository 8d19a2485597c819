package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
	"fanshorts/internal/middleware"
	"fanshorts/internal/providers/higgsfield"
	"fanshorts/internal/providers/replicate"
	"fanshorts/internal/service"
)

// maxMultipartMemory bounds in-memory multipart buffering; larger files spill
// to temp storage.
const maxMultipartMemory = 64 << 20

// App carries the handler dependencies.
type App struct {
	Generations *service.GenerationService
	Library     *service.LibraryService
	Analytics   domain.AnalyticsRepository
	Higgsfield  *higgsfield.Client
	Logger      infra.Logger
}

func NewApp(generations *service.GenerationService, library *service.LibraryService, analytics domain.AnalyticsRepository, hf *higgsfield.Client, logger infra.Logger) *App {
	return &App{
		Generations: generations,
		Library:     library,
		Analytics:   analytics,
		Higgsfield:  hf,
		Logger:      logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// localized error messages, keyed by error code then locale.
var errorMessages = map[string]map[string]string{
	"bad_request": {
		"en": "The request is invalid.",
		"ko": "요청이 올바르지 않습니다.",
	},
	"not_found": {
		"en": "The requested resource was not found.",
		"ko": "요청한 리소스를 찾을 수 없습니다.",
	},
	"conflict": {
		"en": "The request conflicts with the current state.",
		"ko": "현재 상태와 충돌하는 요청입니다.",
	},
	"provider_error": {
		"en": "The generation provider is unavailable.",
		"ko": "생성 서비스를 사용할 수 없습니다.",
	},
	"internal": {
		"en": "An internal error occurred.",
		"ko": "내부 오류가 발생했습니다.",
	},
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	locale := middleware.LocaleFromContext(r.Context())
	message := ""
	if byLocale, ok := errorMessages[code]; ok {
		message = byLocale[locale]
		if message == "" {
			message = byLocale["en"]
		}
	}
	a.json(w, status, map[string]any{
		"error":   code,
		"message": message,
		"detail":  detail,
	})
}

// fail maps a service error onto an HTTP response.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrValidation):
		a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrLastMotionVideo), errors.Is(err, domain.ErrNotUpscalable):
		a.error(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, replicate.ErrMissingToken), errors.Is(err, higgsfield.ErrMissingCredentials),
		errors.Is(err, domain.ErrProviderFailure):
		a.error(w, r, http.StatusBadGateway, "provider_error", err.Error())
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handlers: request failed")
		a.error(w, r, http.StatusInternalServerError, "internal", "unexpected error")
	}
}

// formFile reads one multipart file into memory, returning nil when the field
// is absent.
func formFile(r *http.Request, field string) (*service.FileUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return readUpload(file, header)
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*service.FileUpload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &service.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

type upscaleResponse struct {
	Status       string `json:"status"`
	Model        string `json:"model,omitempty"`
	PredictionID string `json:"predictionId,omitempty"`
	VideoURL     string `json:"videoUrl,omitempty"`
	StoragePath  string `json:"storagePath,omitempty"`
	Error        string `json:"error,omitempty"`
}

type generationResponse struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	Provider          string           `json:"provider"`
	PredictionID      string           `json:"predictionId,omitempty"`
	MemberID          string           `json:"memberId,omitempty"`
	MusicID           string           `json:"musicId,omitempty"`
	MotionVideoID     string           `json:"motionVideoId,omitempty"`
	ConceptImageID    string           `json:"conceptImageId,omitempty"`
	Prompt            string           `json:"prompt,omitempty"`
	ImageURL          string           `json:"imageUrl,omitempty"`
	MotionVideoURL    string           `json:"motionVideoUrl,omitempty"`
	MotionPresetID    string           `json:"motionPresetId,omitempty"`
	Status            string           `json:"status"`
	OutputURL         string           `json:"outputUrl,omitempty"`
	OutputStoragePath string           `json:"outputStoragePath,omitempty"`
	Duration          int              `json:"duration,omitempty"`
	Error             string           `json:"error,omitempty"`
	Upscale           *upscaleResponse `json:"upscale,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func toGenerationResponse(g *domain.Generation) generationResponse {
	resp := generationResponse{
		ID:                g.ID,
		Type:              string(g.Type),
		Provider:          g.Provider,
		PredictionID:      g.PredictionID,
		MemberID:          g.MemberID,
		MusicID:           g.MusicID,
		MotionVideoID:     g.MotionVideoID,
		ConceptImageID:    g.ConceptImageID,
		Prompt:            g.Prompt,
		ImageURL:          g.ImageURL,
		MotionVideoURL:    g.MotionVideoURL,
		MotionPresetID:    g.MotionPresetID,
		Status:            string(g.Status),
		OutputURL:         g.OutputURL,
		OutputStoragePath: g.OutputStoragePath,
		Duration:          g.Duration,
		Error:             g.ErrorMessage,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
	if g.UpscaleStatus != "" {
		resp.Upscale = &upscaleResponse{
			Status:       string(g.UpscaleStatus),
			Model:        string(g.UpscaleModel),
			PredictionID: g.UpscalePredictionID,
			VideoURL:     g.UpscaledVideoURL,
			StoragePath:  g.UpscaledStoragePath,
			Error:        g.UpscaleErrorMessage,
		}
	}
	return resp
}
