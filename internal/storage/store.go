package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Store is the durable object storage abstraction. Implementations own blob
// lifecycle exclusively; no other component mutates storage paths.
type Store interface {
	// Upload persists bytes under key and returns the public URL. With
	// upsert set, re-uploading the same key overwrites in place.
	Upload(ctx context.Context, key, contentType string, data []byte, upsert bool) (string, error)
	// Fetch reads the full object back.
	Fetch(ctx context.Context, key string) ([]byte, error)
	// Remove deletes objects. Callers treat failures as non-fatal.
	Remove(ctx context.Context, keys ...string) error
	// PublicURL derives the serving URL for a stored key.
	PublicURL(key string) string
}

// Deterministic key layout. Repeated adoption of the same record writes the
// same key, which is what makes adoption idempotent.
func GeneratedVideoKey(generationID string) string {
	return fmt.Sprintf("generated-videos/%s.mp4", generationID)
}

func GeneratedImageKey(generationID string) string {
	return fmt.Sprintf("generated-images/%s.jpg", generationID)
}

func UpscaledVideoKey(generationID, model string) string {
	return fmt.Sprintf("upscaled-videos/%s-%s.mp4", generationID, model)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
