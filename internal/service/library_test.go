package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"fanshorts/internal/domain"
	"fanshorts/internal/storage"
)

type libraryFixture struct {
	svc         *LibraryService
	motions     *memMotions
	concepts    *memConcepts
	characters  *memCharacters
	generations *memGenerations
	store       *storage.FileStore
}

func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost/static")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	f := &libraryFixture{
		motions:     newMemMotions(),
		concepts:    newMemConcepts(),
		characters:  newMemCharacters(),
		generations: newMemGenerations(),
		store:       store,
	}
	f.svc = NewLibraryService(LibraryServiceOptions{
		Motions:     f.motions,
		Concepts:    f.concepts,
		Characters:  f.characters,
		Generations: f.generations,
		Store:       store,
		Logger:      zerolog.New(io.Discard),
	})
	return f
}

func TestUploadMotionVideoStoresClipAndThumbnail(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	mv, err := f.svc.UploadMotionVideo(ctx, UploadMotionVideoInput{
		Name:      "  Wave  ",
		Duration:  4.2,
		File:      FileUpload{Filename: "wave.mp4", ContentType: "video/mp4", Data: []byte("clip")},
		Thumbnail: &FileUpload{Filename: "wave.jpg", ContentType: "image/jpeg", Data: []byte("thumb")},
	})
	if err != nil {
		t.Fatalf("UploadMotionVideo() error = %v", err)
	}
	if mv.Name != "Wave" || mv.Duration != 4.2 {
		t.Fatalf("motion video = %+v", mv)
	}
	if !strings.HasPrefix(mv.StoragePath, "motion-videos/") || !strings.HasSuffix(mv.StoragePath, ".mp4") {
		t.Fatalf("storage path = %q", mv.StoragePath)
	}
	if !strings.HasPrefix(mv.ThumbnailPath, "motion-videos/thumbnails/") {
		t.Fatalf("thumbnail path = %q", mv.ThumbnailPath)
	}
	for _, key := range []string{mv.StoragePath, mv.ThumbnailPath} {
		if _, err := f.store.Fetch(ctx, key); err != nil {
			t.Fatalf("Fetch(%q) error = %v", key, err)
		}
	}
}

func TestUploadMotionVideoNameFallsBackToFilename(t *testing.T) {
	f := newLibraryFixture(t)
	mv, err := f.svc.UploadMotionVideo(context.Background(), UploadMotionVideoInput{
		File: FileUpload{Filename: "spin-move.mov", ContentType: "video/quicktime", Data: []byte("clip")},
	})
	if err != nil {
		t.Fatalf("UploadMotionVideo() error = %v", err)
	}
	if mv.Name != "spin-move" {
		t.Fatalf("name = %q", mv.Name)
	}
	if !strings.HasSuffix(mv.StoragePath, ".mov") {
		t.Fatalf("storage path = %q", mv.StoragePath)
	}
}

func TestUploadMotionVideoRejectsOtherFormats(t *testing.T) {
	f := newLibraryFixture(t)
	_, err := f.svc.UploadMotionVideo(context.Background(), UploadMotionVideoInput{
		File: FileUpload{Filename: "clip.avi", ContentType: "video/x-msvideo", Data: []byte("clip")},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestDeleteMotionVideoKeepsLastClip(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	_ = f.motions.Create(ctx, &domain.MotionVideo{ID: "mv1", StoragePath: "motion-videos/mv1.mp4"})

	if err := f.svc.DeleteMotionVideo(ctx, "mv1"); !errors.Is(err, domain.ErrLastMotionVideo) {
		t.Fatalf("error = %v, want ErrLastMotionVideo", err)
	}
	if _, err := f.motions.GetByID(ctx, "mv1"); err != nil {
		t.Fatal("last clip must survive the delete attempt")
	}
}

func TestDeleteMotionVideoDetachesGenerations(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	key := "motion-videos/mv1.mp4"
	if _, err := f.store.Upload(ctx, key, "video/mp4", []byte("clip"), false); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	_ = f.motions.Create(ctx, &domain.MotionVideo{ID: "mv1", StoragePath: key})
	_ = f.motions.Create(ctx, &domain.MotionVideo{ID: "mv2", StoragePath: "motion-videos/mv2.mp4"})
	_ = f.generations.Create(ctx, &domain.Generation{
		ID:            "g1",
		Type:          domain.GenerationTypeVideo,
		Status:        domain.StatusCompleted,
		MotionVideoID: "mv1",
	})

	if err := f.svc.DeleteMotionVideo(ctx, "mv1"); err != nil {
		t.Fatalf("DeleteMotionVideo() error = %v", err)
	}
	if _, err := f.motions.GetByID(ctx, "mv1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("clip record still present")
	}
	g, err := f.generations.GetByID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if g.MotionVideoID != "" {
		t.Fatalf("generation still references deleted clip: %q", g.MotionVideoID)
	}
	if _, err := f.store.Fetch(ctx, key); err == nil {
		t.Fatal("clip blob still present")
	}
}

func TestRenameMotionVideo(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()
	_ = f.motions.Create(ctx, &domain.MotionVideo{ID: "mv1", Name: "Old"})

	if _, err := f.svc.RenameMotionVideo(ctx, "mv1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.RenameMotionVideo(ctx, "missing", "New"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	mv, err := f.svc.RenameMotionVideo(ctx, "mv1", "New")
	if err != nil {
		t.Fatalf("RenameMotionVideo() error = %v", err)
	}
	if mv.Name != "New" {
		t.Fatalf("name = %q", mv.Name)
	}
}

func TestUploadAndDeleteConceptImage(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	c, err := f.svc.UploadConceptImage(ctx, "Stage", FileUpload{
		Filename:    "stage.png",
		ContentType: "image/png",
		Data:        []byte("img"),
	})
	if err != nil {
		t.Fatalf("UploadConceptImage() error = %v", err)
	}
	if c.Name != "Stage" || !strings.HasSuffix(c.StoragePath, ".png") {
		t.Fatalf("concept = %+v", c)
	}
	if c.PublicURL == "" {
		t.Fatal("public url missing")
	}

	_ = f.generations.Create(ctx, &domain.Generation{
		ID:             "g1",
		Type:           domain.GenerationTypeImage,
		Status:         domain.StatusCompleted,
		ConceptImageID: c.ID,
	})

	// Unlike motion clips there is no last-one rule for concepts.
	if err := f.svc.DeleteConceptImage(ctx, c.ID); err != nil {
		t.Fatalf("DeleteConceptImage() error = %v", err)
	}
	g, _ := f.generations.GetByID(ctx, "g1")
	if g.ConceptImageID != "" {
		t.Fatalf("generation still references deleted concept: %q", g.ConceptImageID)
	}
	if _, err := f.store.Fetch(ctx, c.StoragePath); err == nil {
		t.Fatal("concept blob still present")
	}
}

func TestUploadCharacterImageValidatesRoster(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	_, err := f.svc.UploadCharacterImage(ctx, "nobody", "x", FileUpload{Filename: "a.jpg", Data: []byte("img")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	c, err := f.svc.UploadCharacterImage(ctx, "rumi", "Alt look", FileUpload{
		Filename:    "alt.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("img"),
	})
	if err != nil {
		t.Fatalf("UploadCharacterImage() error = %v", err)
	}
	if c.CharacterID != "rumi" || !strings.HasPrefix(c.StoragePath, "character-images/rumi/") {
		t.Fatalf("character image = %+v", c)
	}

	images, err := f.svc.ListCharacterImages(ctx, "rumi")
	if err != nil {
		t.Fatalf("ListCharacterImages() error = %v", err)
	}
	if len(images) != 1 || images[0].ID != c.ID {
		t.Fatalf("images = %+v", images)
	}

	if err := f.svc.DeleteCharacterImage(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCharacterImage() error = %v", err)
	}
	if _, err := f.store.Fetch(ctx, c.StoragePath); err == nil {
		t.Fatal("character image blob still present")
	}
}
