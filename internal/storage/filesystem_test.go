package storage

import (
	"context"
	"strings"
	"testing"
)

func TestFileStoreUploadFetchRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	url, err := store.Upload(ctx, "generated-videos/g1.mp4", "video/mp4", []byte("payload"), false)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "http://localhost:8080/static/generated-videos/g1.mp4" {
		t.Fatalf("url = %q", url)
	}

	data, err := store.Fetch(ctx, "generated-videos/g1.mp4")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("data = %q", data)
	}

	if err := store.Remove(ctx, "generated-videos/g1.mp4"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := store.Fetch(ctx, "generated-videos/g1.mp4"); err == nil {
		t.Fatal("Fetch() after Remove() should fail")
	}
}

func TestFileStoreUploadWithoutUpsertRejectsExisting(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := store.Upload(ctx, "a/b.mp4", "video/mp4", []byte("one"), false); err != nil {
		t.Fatalf("first Upload() error = %v", err)
	}
	if _, err := store.Upload(ctx, "a/b.mp4", "video/mp4", []byte("two"), false); err == nil {
		t.Fatal("second Upload() without upsert should fail")
	}
	if _, err := store.Upload(ctx, "a/b.mp4", "video/mp4", []byte("two"), true); err != nil {
		t.Fatalf("Upload() with upsert error = %v", err)
	}
	data, err := store.Fetch(ctx, "a/b.mp4")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "two" {
		t.Fatalf("data = %q, want overwritten content", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if _, err := store.Upload(context.Background(), "../escape.mp4", "video/mp4", []byte("x"), true); err == nil {
		t.Fatal("Upload() with traversal key should fail")
	}
}

func TestRemoveMissingFileIsNotError(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.Remove(context.Background(), "nothing/here.mp4"); err != nil {
		t.Fatalf("Remove() of missing key error = %v", err)
	}
}

func TestDeterministicKeys(t *testing.T) {
	if got := GeneratedVideoKey("g1"); got != "generated-videos/g1.mp4" {
		t.Fatalf("GeneratedVideoKey() = %q", got)
	}
	if got := GeneratedImageKey("g1"); got != "generated-images/g1.jpg" {
		t.Fatalf("GeneratedImageKey() = %q", got)
	}
	if got := UpscaledVideoKey("g1", "topaz"); got != "upscaled-videos/g1-topaz.mp4" {
		t.Fatalf("UpscaledVideoKey() = %q", got)
	}
	if !strings.HasPrefix(UpscaledVideoKey("g1", "real-esrgan"), "upscaled-videos/") {
		t.Fatal("upscaled keys must live under upscaled-videos/")
	}
}
