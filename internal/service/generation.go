package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
	"fanshorts/internal/lifecycle"
	"fanshorts/internal/middleware"
	"fanshorts/internal/providers/higgsfield"
	"fanshorts/internal/providers/replicate"
	"fanshorts/internal/storage"
	zippkg "fanshorts/pkg/zip"
)

// maxUploadDurationSeconds bounds user-uploaded result clips.
const maxUploadDurationSeconds = 10

// FileUpload carries raw multipart file content through the service layer.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GenerationServiceOptions wires the collaborators of a GenerationService.
type GenerationServiceOptions struct {
	Repo       domain.GenerationRepository
	Motions    domain.MotionVideoRepository
	Concepts   domain.ConceptImageRepository
	Analytics  domain.AnalyticsRepository
	Replicate  *replicate.Client
	Higgsfield *higgsfield.Client
	Artifacts  *storage.ArtifactStore
	Store      storage.Store
	Logger     infra.Logger
}

// GenerationService owns the generation job lifecycle: submission, polling,
// upscaling, uploads, re-linking and deletion.
type GenerationService struct {
	repo       domain.GenerationRepository
	motions    domain.MotionVideoRepository
	concepts   domain.ConceptImageRepository
	analytics  domain.AnalyticsRepository
	replicate  *replicate.Client
	higgsfield *higgsfield.Client
	artifacts  *storage.ArtifactStore
	store      storage.Store
	logger     infra.Logger
}

func NewGenerationService(opts GenerationServiceOptions) *GenerationService {
	return &GenerationService{
		repo:       opts.Repo,
		motions:    opts.Motions,
		concepts:   opts.Concepts,
		analytics:  opts.Analytics,
		replicate:  opts.Replicate,
		higgsfield: opts.Higgsfield,
		artifacts:  opts.Artifacts,
		store:      opts.Store,
		logger:     opts.Logger,
	}
}

// SubmitMotionVideoInput captures one motion video generation request. Image
// and video inputs arrive either as URLs or as raw uploads; uploads go
// through the Replicate files API first.
type SubmitMotionVideoInput struct {
	Provider       string
	MemberID       string
	MusicID        string
	MotionVideoID  string
	MotionPresetID string
	Prompt         string
	ImageURL       string
	ImageFile      *FileUpload
	VideoURL       string
	VideoFile      *FileUpload
	Duration       int
}

// SubmitMotionVideo validates the request, submits the provider job and only
// then inserts the pending record. Provider rejection persists nothing.
func (s *GenerationService) SubmitMotionVideo(ctx context.Context, in SubmitMotionVideoInput) (*domain.Generation, error) {
	provider := in.Provider
	if provider == "" {
		provider = domain.ProviderReplicate
	}

	imageURL, err := s.resolveImageURL(ctx, in)
	if err != nil {
		return nil, err
	}

	g := &domain.Generation{
		ID:             uuid.NewString(),
		Type:           domain.GenerationTypeVideo,
		Provider:       provider,
		MemberID:       in.MemberID,
		MusicID:        in.MusicID,
		MotionVideoID:  in.MotionVideoID,
		Prompt:         in.Prompt,
		ImageURL:       imageURL,
		Status:         domain.StatusPending,
		Duration:       in.Duration,
		MotionPresetID: in.MotionPresetID,
	}

	switch provider {
	case domain.ProviderReplicate:
		videoURL, err := s.resolveVideoURL(ctx, in)
		if err != nil {
			return nil, err
		}
		pred, err := s.replicate.CreatePrediction(ctx, replicate.MotionControlVersion,
			replicate.MotionControlInput(imageURL, videoURL, in.Prompt))
		if err != nil {
			return nil, fmt.Errorf("service: submit motion video: %w", err)
		}
		g.PredictionID = pred.ID
		g.MotionVideoURL = videoURL
	case domain.ProviderHiggsfield:
		if in.MotionPresetID == "" {
			return nil, fmt.Errorf("%w: motion preset id is required", domain.ErrValidation)
		}
		set, err := s.higgsfield.GenerateVideo(ctx, higgsfield.GenerateInput{
			ImageURL: imageURL,
			MotionID: in.MotionPresetID,
			Prompt:   in.Prompt,
		})
		if err != nil {
			return nil, fmt.Errorf("service: submit motion video: %w", err)
		}
		g.PredictionID = set.ID
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrValidation, provider)
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("service: persist generation: %w", err)
	}
	s.track(ctx, "video_submitted")
	return s.repo.GetByID(ctx, g.ID)
}

func (s *GenerationService) resolveImageURL(ctx context.Context, in SubmitMotionVideoInput) (string, error) {
	if in.ImageURL != "" {
		return in.ImageURL, nil
	}
	if in.ImageFile != nil {
		url, err := s.replicate.UploadFile(ctx, in.ImageFile.Filename, in.ImageFile.ContentType, in.ImageFile.Data)
		if err != nil {
			return "", fmt.Errorf("service: upload image input: %w", err)
		}
		return url, nil
	}
	if in.MemberID != "" {
		if url := domain.CharacterImageURL(in.MemberID, "default"); url != "" {
			return url, nil
		}
	}
	return "", fmt.Errorf("%w: an image url, image file or member id is required", domain.ErrValidation)
}

func (s *GenerationService) resolveVideoURL(ctx context.Context, in SubmitMotionVideoInput) (string, error) {
	if in.VideoURL != "" {
		return in.VideoURL, nil
	}
	if in.VideoFile != nil {
		url, err := s.replicate.UploadFile(ctx, in.VideoFile.Filename, in.VideoFile.ContentType, in.VideoFile.Data)
		if err != nil {
			return "", fmt.Errorf("service: upload video input: %w", err)
		}
		return url, nil
	}
	if in.MotionVideoID != "" {
		mv, err := s.motions.GetByID(ctx, in.MotionVideoID)
		if err != nil {
			return "", fmt.Errorf("service: load motion video: %w", err)
		}
		return s.store.PublicURL(mv.StoragePath), nil
	}
	return "", fmt.Errorf("%w: a video url, video file or motion video id is required", domain.ErrValidation)
}

// referencePrefixes steer the image model's use of the second input image.
var referencePrefixes = map[string]string{
	"background":  "Place the character from the first image into the background scene of the second image. ",
	"pose":        "Make the character from the first image take the pose shown in the second image. ",
	"style":       "Render the character from the first image in the visual style of the second image. ",
	"composition": "Follow the framing and composition of the second image. ",
}

// SubmitImageInput captures one image generation request.
type SubmitImageInput struct {
	Prompt         string
	MemberID       string
	VariantID      string
	ConceptImageID string
	ReferenceType  string
}

// SubmitImage submits an image generation for a roster character, optionally
// guided by a concept reference image.
func (s *GenerationService) SubmitImage(ctx context.Context, in SubmitImageInput) (*domain.Generation, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	charURL := domain.CharacterImageURL(in.MemberID, in.VariantID)
	if charURL == "" {
		return nil, fmt.Errorf("%w: unknown member %q", domain.ErrValidation, in.MemberID)
	}

	prompt := in.Prompt
	imageInput := []string{charURL}
	if in.ConceptImageID != "" {
		concept, err := s.concepts.GetByID(ctx, in.ConceptImageID)
		if err != nil {
			return nil, fmt.Errorf("service: load concept image: %w", err)
		}
		imageInput = append(imageInput, concept.PublicURL)
		if prefix, ok := referencePrefixes[in.ReferenceType]; ok {
			prompt = prefix + prompt
		}
	}

	pred, err := s.replicate.CreatePrediction(ctx, replicate.ImageModelVersion,
		replicate.ImageInput(prompt, imageInput, "", ""))
	if err != nil {
		return nil, fmt.Errorf("service: submit image: %w", err)
	}

	g := &domain.Generation{
		ID:             uuid.NewString(),
		Type:           domain.GenerationTypeImage,
		Provider:       domain.ProviderReplicate,
		PredictionID:   pred.ID,
		MemberID:       in.MemberID,
		ConceptImageID: in.ConceptImageID,
		Prompt:         in.Prompt,
		ImageURL:       charURL,
		Status:         domain.StatusPending,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("service: persist generation: %w", err)
	}
	s.track(ctx, "image_submitted")
	return s.repo.GetByID(ctx, g.ID)
}

// SubmitUpscale starts the upscale sub-lifecycle on a completed video
// generation. Resolution is model-specific and optional.
func (s *GenerationService) SubmitUpscale(ctx context.Context, id string, model domain.UpscaleModel, resolution string) (*domain.Generation, error) {
	if !model.Valid() {
		return nil, fmt.Errorf("%w: unknown upscale model %q", domain.ErrValidation, model)
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Type != domain.GenerationTypeVideo || g.Status != domain.StatusCompleted {
		return nil, domain.ErrNotUpscalable
	}
	sourceURL := g.OutputURL
	if g.OutputStoragePath != "" {
		sourceURL = s.store.PublicURL(g.OutputStoragePath)
	}
	if sourceURL == "" {
		return nil, domain.ErrNotUpscalable
	}

	var version string
	var input map[string]any
	switch model {
	case domain.UpscaleModelTopaz:
		version = replicate.TopazVersion
		input = replicate.TopazInput(sourceURL, resolution)
	default:
		version = replicate.RealESRGANVersion
		input = replicate.RealESRGANInput(sourceURL, resolution)
	}

	pred, err := s.replicate.CreatePrediction(ctx, version, input)
	if err != nil {
		return nil, fmt.Errorf("service: submit upscale: %w", err)
	}
	if err := s.repo.StartUpscale(ctx, id, model, pred.ID); err != nil {
		return nil, fmt.Errorf("service: persist upscale: %w", err)
	}
	s.track(ctx, "upscale_submitted")
	return s.repo.GetByID(ctx, id)
}

// Poll advances the primary lifecycle by one tick and returns the fresh
// record. When a completed job's adoption failed, the returned record carries
// the transient provider URL without persisting it.
func (s *GenerationService) Poll(ctx context.Context, id string) (*domain.Generation, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	machine := s.primaryMachine(g)
	rec := lifecycle.Record{
		ID:           g.ID,
		ExternalID:   g.PredictionID,
		Status:       g.Status,
		OutputURL:    g.OutputURL,
		StorageKey:   g.OutputStoragePath,
		ErrorMessage: g.ErrorMessage,
	}
	res, err := machine.Tick(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("service: poll generation: %w", err)
	}
	if !g.Status.Terminal() && res.Status.Terminal() {
		s.track(ctx, string(g.Type)+"_"+string(res.Status))
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh.OutputURL == "" && res.Output != "" {
		fresh.OutputURL = res.Output
	}
	return fresh, nil
}

// PollUpscale advances the upscale sub-lifecycle by one tick.
func (s *GenerationService) PollUpscale(ctx context.Context, id string) (*domain.Generation, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	machine := s.upscaleMachine(g)
	rec := lifecycle.Record{
		ID:           g.ID,
		ExternalID:   g.UpscalePredictionID,
		Status:       g.UpscaleStatus,
		OutputURL:    g.UpscaledVideoURL,
		StorageKey:   g.UpscaledStoragePath,
		ErrorMessage: g.UpscaleErrorMessage,
	}
	res, err := machine.Tick(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("service: poll upscale: %w", err)
	}
	if !g.UpscaleStatus.Terminal() && res.Status.Terminal() {
		s.track(ctx, "upscale_"+string(res.Status))
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh.UpscaledVideoURL == "" && res.Output != "" {
		fresh.UpscaledVideoURL = res.Output
	}
	return fresh, nil
}

func (s *GenerationService) primaryMachine(g *domain.Generation) *lifecycle.Machine {
	var poller lifecycle.Poller = replicatePoller{client: s.replicate}
	if g.Provider == domain.ProviderHiggsfield {
		poller = higgsfieldPoller{client: s.higgsfield}
	}
	genType := g.Type
	return &lifecycle.Machine{
		Poller:  poller,
		Adopter: s.artifacts,
		Persist: s.repo.UpdateLifecycle,
		Key: func(rec lifecycle.Record) string {
			if genType == domain.GenerationTypeImage {
				return storage.GeneratedImageKey(rec.ID)
			}
			return storage.GeneratedVideoKey(rec.ID)
		},
		Logger: s.logger,
	}
}

func (s *GenerationService) upscaleMachine(g *domain.Generation) *lifecycle.Machine {
	model := string(g.UpscaleModel)
	return &lifecycle.Machine{
		Poller:  replicatePoller{client: s.replicate},
		Adopter: s.artifacts,
		Persist: s.repo.UpdateUpscaleLifecycle,
		Key: func(rec lifecycle.Record) string {
			return storage.UpscaledVideoKey(rec.ID, model)
		},
		Logger: s.logger,
	}
}

// UploadResultInput captures a user-supplied finished clip that bypasses the
// providers entirely.
type UploadResultInput struct {
	File          FileUpload
	MemberID      string
	MusicID       string
	MotionVideoID string
	Duration      int
}

// UploadResult stores a user-uploaded clip and records it as a completed
// generation with no provider job attached.
func (s *GenerationService) UploadResult(ctx context.Context, in UploadResultInput) (*domain.Generation, error) {
	if len(in.File.Data) == 0 {
		return nil, fmt.Errorf("%w: video file is required", domain.ErrValidation)
	}
	if in.Duration > maxUploadDurationSeconds {
		return nil, fmt.Errorf("%w: video must be at most %d seconds", domain.ErrValidation, maxUploadDurationSeconds)
	}
	if !uploadContentTypeAllowed(in.File) {
		return nil, fmt.Errorf("%w: only mp4 and mov videos are accepted", domain.ErrValidation)
	}

	id := uuid.NewString()
	key := storage.GeneratedVideoKey(id)
	contentType := in.File.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	publicURL, err := s.store.Upload(ctx, key, contentType, in.File.Data, false)
	if err != nil {
		return nil, fmt.Errorf("service: store uploaded result: %w", err)
	}

	g := &domain.Generation{
		ID:            id,
		Type:          domain.GenerationTypeVideo,
		Provider:      domain.ProviderUpload,
		MemberID:      in.MemberID,
		MusicID:       in.MusicID,
		MotionVideoID: in.MotionVideoID,
		Status:        domain.StatusPending,
		Duration:      in.Duration,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("service: persist generation: %w", err)
	}
	upd := domain.LifecycleUpdate{
		Status:      domain.StatusCompleted,
		OutputURL:   &publicURL,
		StoragePath: &key,
	}
	if err := s.repo.UpdateLifecycle(ctx, id, upd); err != nil {
		return nil, fmt.Errorf("service: persist generation: %w", err)
	}
	s.track(ctx, "video_uploaded")
	return s.repo.GetByID(ctx, id)
}

func uploadContentTypeAllowed(f FileUpload) bool {
	switch strings.ToLower(f.ContentType) {
	case "video/mp4", "video/quicktime":
		return true
	}
	switch strings.ToLower(path.Ext(f.Filename)) {
	case ".mp4", ".mov":
		return true
	}
	return false
}

// Get returns one generation without ticking its lifecycle.
func (s *GenerationService) Get(ctx context.Context, id string) (*domain.Generation, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the gallery, newest first.
func (s *GenerationService) List(ctx context.Context, limit, offset int) ([]domain.Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateMusic re-links the selected track after validating it exists.
func (s *GenerationService) UpdateMusic(ctx context.Context, id, musicID string) (*domain.Generation, error) {
	if musicID != "" && domain.TrackByID(musicID) == nil {
		return nil, fmt.Errorf("%w: unknown track %q", domain.ErrValidation, musicID)
	}
	if err := s.repo.UpdateMusic(ctx, id, musicID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateMotionVideo re-links the motion reference clip.
func (s *GenerationService) UpdateMotionVideo(ctx context.Context, id, motionVideoID string) (*domain.Generation, error) {
	if motionVideoID != "" {
		if _, err := s.motions.GetByID(ctx, motionVideoID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateMotionVideo(ctx, id, motionVideoID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateConceptImage re-links the concept reference image.
func (s *GenerationService) UpdateConceptImage(ctx context.Context, id, conceptImageID string) (*domain.Generation, error) {
	if conceptImageID != "" {
		if _, err := s.concepts.GetByID(ctx, conceptImageID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateConceptImage(ctx, id, conceptImageID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes the record, then cleans up adopted artifacts. Storage
// removal is best-effort; a dangling blob is preferable to a dangling row.
func (s *GenerationService) Delete(ctx context.Context, id string) error {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete generation: %w", err)
	}
	var keys []string
	if g.OutputStoragePath != "" {
		keys = append(keys, g.OutputStoragePath)
	}
	if g.UpscaledStoragePath != "" {
		keys = append(keys, g.UpscaledStoragePath)
	}
	if len(keys) > 0 {
		if err := s.artifacts.Remove(ctx, keys...); err != nil {
			s.logger.Warn().Err(err).Str("generation_id", id).Msg("service: storage cleanup failed")
		}
	}
	return nil
}

// DownloadArchive bundles the stored artifacts of a generation into a zip.
func (s *GenerationService) DownloadArchive(ctx context.Context, id string) ([]byte, string, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	var assets []zippkg.Asset
	for _, key := range []string{g.OutputStoragePath, g.UpscaledStoragePath} {
		if key == "" {
			continue
		}
		data, err := s.store.Fetch(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("service: fetch artifact for archive failed")
			continue
		}
		assets = append(assets, zippkg.Asset{Filename: path.Base(key), Data: data})
	}
	if len(assets) == 0 {
		return nil, "", fmt.Errorf("%w: no stored artifacts to download", domain.ErrValidation)
	}
	return zippkg.ArchiveAssets(assets), fmt.Sprintf("generation-%s.zip", g.ID), nil
}

// Reconcile ticks every unfinished lifecycle once, covering records whose
// submitting client went away. Returns the number of records ticked.
func (s *GenerationService) Reconcile(ctx context.Context) (int, error) {
	const pageSize = 200
	ticked := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.repo.List(ctx, pageSize, offset)
		if err != nil {
			return ticked, err
		}
		for i := range page {
			g := &page[i]
			if needsPrimaryTick(g) {
				if _, err := s.Poll(ctx, g.ID); err != nil {
					s.logger.Warn().Err(err).Str("generation_id", g.ID).Msg("service: reconcile poll failed")
				}
				ticked++
			}
			if needsUpscaleTick(g) {
				if _, err := s.PollUpscale(ctx, g.ID); err != nil {
					s.logger.Warn().Err(err).Str("generation_id", g.ID).Msg("service: reconcile upscale poll failed")
				}
				ticked++
			}
		}
		if len(page) < pageSize {
			return ticked, nil
		}
	}
}

func needsPrimaryTick(g *domain.Generation) bool {
	if g.PredictionID == "" {
		return false
	}
	if !g.Status.Terminal() {
		return true
	}
	// Completed but never adopted: tick so adoption can be retried.
	return g.Status == domain.StatusCompleted && g.OutputStoragePath == ""
}

func needsUpscaleTick(g *domain.Generation) bool {
	if g.UpscalePredictionID == "" || g.UpscaleStatus == "" {
		return false
	}
	if !g.UpscaleStatus.Terminal() {
		return true
	}
	return g.UpscaleStatus == domain.StatusCompleted && g.UpscaledStoragePath == ""
}

func (s *GenerationService) track(ctx context.Context, counter string) {
	if s.analytics == nil {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	country := middleware.CountryFromContext(ctx)
	if err := s.analytics.IncrementCounters(ctx, day, country, map[string]int{counter: 1}); err != nil {
		s.logger.Warn().Err(err).Str("counter", counter).Msg("service: analytics increment failed")
	}
}
