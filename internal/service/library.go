package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
	"fanshorts/internal/storage"
)

// LibraryServiceOptions wires the collaborators of a LibraryService.
type LibraryServiceOptions struct {
	Motions     domain.MotionVideoRepository
	Concepts    domain.ConceptImageRepository
	Characters  domain.CharacterImageRepository
	Generations domain.GenerationRepository
	Store       storage.Store
	Logger      infra.Logger
}

// LibraryService manages the reusable asset libraries: motion reference
// clips, concept images and uploaded character images.
type LibraryService struct {
	motions     domain.MotionVideoRepository
	concepts    domain.ConceptImageRepository
	characters  domain.CharacterImageRepository
	generations domain.GenerationRepository
	store       storage.Store
	logger      infra.Logger
}

func NewLibraryService(opts LibraryServiceOptions) *LibraryService {
	return &LibraryService{
		motions:     opts.Motions,
		concepts:    opts.Concepts,
		characters:  opts.Characters,
		generations: opts.Generations,
		store:       opts.Store,
		logger:      opts.Logger,
	}
}

// PublicURL derives the serving URL for a stored library asset.
func (s *LibraryService) PublicURL(key string) string {
	return s.store.PublicURL(key)
}

// UploadMotionVideoInput captures a new motion reference clip.
type UploadMotionVideoInput struct {
	Name      string
	Duration  float64
	File      FileUpload
	Thumbnail *FileUpload
}

// UploadMotionVideo stores the clip (and its optional thumbnail) and records
// the library entry.
func (s *LibraryService) UploadMotionVideo(ctx context.Context, in UploadMotionVideoInput) (*domain.MotionVideo, error) {
	if len(in.File.Data) == 0 {
		return nil, fmt.Errorf("%w: video file is required", domain.ErrValidation)
	}
	ext := fileExt(in.File, ".mp4")
	if ext != ".mp4" && ext != ".mov" {
		return nil, fmt.Errorf("%w: only mp4 and mov videos are accepted", domain.ErrValidation)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSuffix(in.File.Filename, path.Ext(in.File.Filename))
	}
	if name == "" {
		name = "Untitled motion"
	}

	id := uuid.NewString()
	key := fmt.Sprintf("motion-videos/%s%s", id, ext)
	if _, err := s.store.Upload(ctx, key, contentTypeOr(in.File, "video/mp4"), in.File.Data, false); err != nil {
		return nil, fmt.Errorf("service: store motion video: %w", err)
	}

	thumbKey := ""
	if in.Thumbnail != nil && len(in.Thumbnail.Data) > 0 {
		thumbKey = fmt.Sprintf("motion-videos/thumbnails/%s.jpg", id)
		if _, err := s.store.Upload(ctx, thumbKey, contentTypeOr(*in.Thumbnail, "image/jpeg"), in.Thumbnail.Data, false); err != nil {
			s.logger.Warn().Err(err).Str("motion_video_id", id).Msg("service: thumbnail upload failed")
			thumbKey = ""
		}
	}

	mv := &domain.MotionVideo{
		ID:            id,
		Name:          name,
		StoragePath:   key,
		ThumbnailPath: thumbKey,
		Duration:      in.Duration,
	}
	if err := s.motions.Create(ctx, mv); err != nil {
		return nil, fmt.Errorf("service: persist motion video: %w", err)
	}
	return s.motions.GetByID(ctx, id)
}

// ListMotionVideos returns the motion clip library, newest first.
func (s *LibraryService) ListMotionVideos(ctx context.Context) ([]domain.MotionVideo, error) {
	return s.motions.List(ctx)
}

// RenameMotionVideo updates the display name.
func (s *LibraryService) RenameMotionVideo(ctx context.Context, id, name string) (*domain.MotionVideo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if _, err := s.motions.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.motions.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.motions.GetByID(ctx, id)
}

// DeleteMotionVideo removes a clip from the library. The last remaining clip
// cannot be deleted. Referencing generations are detached first; blob removal
// is best-effort.
func (s *LibraryService) DeleteMotionVideo(ctx context.Context, id string) error {
	mv, err := s.motions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.motions.Count(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return domain.ErrLastMotionVideo
	}
	if err := s.generations.DetachMotionVideo(ctx, id); err != nil {
		return fmt.Errorf("service: detach motion video: %w", err)
	}
	if err := s.motions.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete motion video: %w", err)
	}
	keys := []string{mv.StoragePath}
	if mv.ThumbnailPath != "" {
		keys = append(keys, mv.ThumbnailPath)
	}
	if err := s.store.Remove(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Str("motion_video_id", id).Msg("service: storage cleanup failed")
	}
	return nil
}

// UploadConceptImage stores a reference image and records the library entry.
func (s *LibraryService) UploadConceptImage(ctx context.Context, name string, file FileUpload) (*domain.ConceptImage, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: image file is required", domain.ErrValidation)
	}
	ext := fileExt(file, ".jpg")
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(file.Filename, path.Ext(file.Filename))
	}
	if name == "" {
		name = "Untitled concept"
	}

	id := uuid.NewString()
	key := fmt.Sprintf("concept-images/%s%s", id, ext)
	publicURL, err := s.store.Upload(ctx, key, contentTypeOr(file, "image/jpeg"), file.Data, false)
	if err != nil {
		return nil, fmt.Errorf("service: store concept image: %w", err)
	}

	c := &domain.ConceptImage{
		ID:          id,
		Name:        name,
		StoragePath: key,
		PublicURL:   publicURL,
	}
	if err := s.concepts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("service: persist concept image: %w", err)
	}
	return s.concepts.GetByID(ctx, id)
}

// ListConceptImages returns the concept library, newest first.
func (s *LibraryService) ListConceptImages(ctx context.Context) ([]domain.ConceptImage, error) {
	return s.concepts.List(ctx)
}

// RenameConceptImage updates the display name.
func (s *LibraryService) RenameConceptImage(ctx context.Context, id, name string) (*domain.ConceptImage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if _, err := s.concepts.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.concepts.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.concepts.GetByID(ctx, id)
}

// DeleteConceptImage removes a concept image, detaching referencing
// generations first. There is no last-one restriction for concepts.
func (s *LibraryService) DeleteConceptImage(ctx context.Context, id string) error {
	c, err := s.concepts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.generations.DetachConceptImage(ctx, id); err != nil {
		return fmt.Errorf("service: detach concept image: %w", err)
	}
	if err := s.concepts.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete concept image: %w", err)
	}
	if err := s.store.Remove(ctx, c.StoragePath); err != nil {
		s.logger.Warn().Err(err).Str("concept_image_id", id).Msg("service: storage cleanup failed")
	}
	return nil
}

// UploadCharacterImage stores an alternate image for a roster character.
func (s *LibraryService) UploadCharacterImage(ctx context.Context, characterID, name string, file FileUpload) (*domain.CharacterImage, error) {
	if domain.CharacterByID(characterID) == nil {
		return nil, fmt.Errorf("%w: unknown member %q", domain.ErrValidation, characterID)
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: image file is required", domain.ErrValidation)
	}
	ext := fileExt(file, ".jpg")
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(file.Filename, path.Ext(file.Filename))
	}

	id := uuid.NewString()
	key := fmt.Sprintf("character-images/%s/%s%s", characterID, id, ext)
	publicURL, err := s.store.Upload(ctx, key, contentTypeOr(file, "image/jpeg"), file.Data, false)
	if err != nil {
		return nil, fmt.Errorf("service: store character image: %w", err)
	}

	c := &domain.CharacterImage{
		ID:          id,
		CharacterID: characterID,
		Name:        name,
		StoragePath: key,
		PublicURL:   publicURL,
	}
	if err := s.characters.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("service: persist character image: %w", err)
	}
	return s.characters.GetByID(ctx, id)
}

// ListCharacterImages returns uploaded images for one roster character.
func (s *LibraryService) ListCharacterImages(ctx context.Context, characterID string) ([]domain.CharacterImage, error) {
	if domain.CharacterByID(characterID) == nil {
		return nil, fmt.Errorf("%w: unknown member %q", domain.ErrValidation, characterID)
	}
	return s.characters.ListByCharacter(ctx, characterID)
}

// DeleteCharacterImage removes an uploaded character image.
func (s *LibraryService) DeleteCharacterImage(ctx context.Context, id string) error {
	c, err := s.characters.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.characters.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete character image: %w", err)
	}
	if err := s.store.Remove(ctx, c.StoragePath); err != nil {
		s.logger.Warn().Err(err).Str("character_image_id", id).Msg("service: storage cleanup failed")
	}
	return nil
}

func fileExt(f FileUpload, fallback string) string {
	switch strings.ToLower(f.ContentType) {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if ext := strings.ToLower(path.Ext(f.Filename)); ext != "" {
		return ext
	}
	return fallback
}

func contentTypeOr(f FileUpload, fallback string) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return fallback
}
