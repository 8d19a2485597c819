package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Adoption is the result of copying a provider output into durable storage.
type Adoption struct {
	StorageKey string
	PublicURL  string
}

// ArtifactStore adopts transient provider CDN outputs into the system's own
// storage before the source links expire.
type ArtifactStore struct {
	store      Store
	httpClient *http.Client
}

// NewArtifactStore wraps a Store with download capability.
func NewArtifactStore(store Store, httpClient *http.Client) *ArtifactStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 180 * time.Second}
	}
	return &ArtifactStore{store: store, httpClient: httpClient}
}

// Adopt downloads the full byte content from sourceURL and writes it under
// key with upsert semantics, so re-adopting the same job is idempotent.
// Single attempt; callers decide whether a later poll retries.
func (a *ArtifactStore) Adopt(ctx context.Context, sourceURL, key string) (Adoption, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return Adoption{}, errors.New("storage: source url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return Adoption{}, fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Adoption{}, fmt.Errorf("storage: download artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Adoption{}, fmt.Errorf("storage: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Adoption{}, fmt.Errorf("storage: read artifact: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	publicURL, err := a.store.Upload(ctx, key, contentType, data, true)
	if err != nil {
		return Adoption{}, err
	}
	return Adoption{StorageKey: key, PublicURL: publicURL}, nil
}

// Remove deletes adopted artifacts. Best-effort semantics live with callers.
func (a *ArtifactStore) Remove(ctx context.Context, keys ...string) error {
	return a.store.Remove(ctx, keys...)
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
