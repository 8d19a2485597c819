package domain

import "time"

// GenerationType enumerates creative job categories.
type GenerationType string

const (
	GenerationTypeVideo GenerationType = "video"
	GenerationTypeImage GenerationType = "image"
)

// GenerationStatus enumerates lifecycle states. Transitions only move
// forward: pending -> processing -> {completed, failed}.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s GenerationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Provider tags recorded on a generation row.
const (
	ProviderReplicate  = "replicate"
	ProviderHiggsfield = "higgsfield"
	ProviderUpload     = "upload"
)

// UpscaleModel identifies the configured upscaling model variants.
type UpscaleModel string

const (
	UpscaleModelRealESRGAN UpscaleModel = "real-esrgan"
	UpscaleModelTopaz      UpscaleModel = "topaz"
)

// Valid reports whether the model is one of the supported variants.
func (m UpscaleModel) Valid() bool {
	return m == UpscaleModelRealESRGAN || m == UpscaleModelTopaz
}

// Generation is one row per creative job. The primary lifecycle and the
// upscale sub-lifecycle are tracked independently on the same row.
type Generation struct {
	ID           string
	Type         GenerationType
	Provider     string
	PredictionID string

	// Selection context. MotionVideoID and ConceptImageID are soft
	// references: deleting the referenced asset nulls them out.
	MemberID       string
	MusicID        string
	MotionVideoID  string
	ConceptImageID string
	Prompt         string

	ImageURL       string
	MotionVideoURL string
	MotionPresetID string

	Status            GenerationStatus
	OutputURL         string
	OutputStoragePath string
	Duration          int
	ErrorMessage      string

	UpscaleStatus       GenerationStatus
	UpscaleModel        UpscaleModel
	UpscalePredictionID string
	UpscaledVideoURL    string
	UpscaledStoragePath string
	UpscaleErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}
