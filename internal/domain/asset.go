package domain

import "time"

// MotionVideo is an uploaded reusable motion reference clip.
type MotionVideo struct {
	ID            string
	Name          string
	StoragePath   string
	ThumbnailPath string
	Duration      float64
	CreatedAt     time.Time
}

// ConceptImage is an uploaded reusable reference image for image generation.
type ConceptImage struct {
	ID          string
	Name        string
	StoragePath string
	PublicURL   string
	CreatedAt   time.Time
}

// CharacterImage is an uploaded alternate image for a catalog character.
type CharacterImage struct {
	ID          string
	CharacterID string
	Name        string
	StoragePath string
	PublicURL   string
	CreatedAt   time.Time
}
