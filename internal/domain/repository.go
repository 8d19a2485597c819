package domain

import "context"

// LifecycleUpdate carries the persistable outcome of one lifecycle tick.
// Nil pointers leave the corresponding column untouched.
type LifecycleUpdate struct {
	Status       GenerationStatus
	OutputURL    *string
	StoragePath  *string
	ErrorMessage *string
}

// GenerationRepository defines persistence for generation rows.
type GenerationRepository interface {
	Create(ctx context.Context, g *Generation) error
	GetByID(ctx context.Context, id string) (*Generation, error)
	List(ctx context.Context, limit, offset int) ([]Generation, error)
	UpdateLifecycle(ctx context.Context, id string, upd LifecycleUpdate) error
	UpdateUpscaleLifecycle(ctx context.Context, id string, upd LifecycleUpdate) error
	StartUpscale(ctx context.Context, id string, model UpscaleModel, predictionID string) error
	UpdateMusic(ctx context.Context, id, musicID string) error
	UpdateMotionVideo(ctx context.Context, id, motionVideoID string) error
	UpdateConceptImage(ctx context.Context, id, conceptImageID string) error
	DetachMotionVideo(ctx context.Context, motionVideoID string) error
	DetachConceptImage(ctx context.Context, conceptImageID string) error
	Delete(ctx context.Context, id string) error
}

// MotionVideoRepository defines persistence for motion reference clips.
type MotionVideoRepository interface {
	Create(ctx context.Context, v *MotionVideo) error
	GetByID(ctx context.Context, id string) (*MotionVideo, error)
	List(ctx context.Context) ([]MotionVideo, error)
	Count(ctx context.Context) (int, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// ConceptImageRepository defines persistence for concept reference images.
type ConceptImageRepository interface {
	Create(ctx context.Context, c *ConceptImage) error
	GetByID(ctx context.Context, id string) (*ConceptImage, error)
	List(ctx context.Context) ([]ConceptImage, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// CharacterImageRepository defines persistence for uploaded character images.
type CharacterImageRepository interface {
	Create(ctx context.Context, c *CharacterImage) error
	GetByID(ctx context.Context, id string) (*CharacterImage, error)
	ListByCharacter(ctx context.Context, characterID string) ([]CharacterImage, error)
	Delete(ctx context.Context, id string) error
}

// AnalyticsRepository updates daily metrics counters.
type AnalyticsRepository interface {
	IncrementCounters(ctx context.Context, day, country string, counters map[string]int) error
	Summary(ctx context.Context) (map[string]int, error)
}
