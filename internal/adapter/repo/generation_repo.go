package repo

import (
	"context"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
)

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewGenerationRepository creates a new generation repository backed by PostgreSQL.
func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

const generationColumns = `
id, type, provider, COALESCE(prediction_id, ''),
COALESCE(member_id, ''), COALESCE(music_id, ''),
COALESCE(motion_video_id::text, ''), COALESCE(concept_image_id::text, ''),
COALESCE(prompt, ''), image_url, COALESCE(motion_video_url, ''),
COALESCE(motion_preset_id, ''), status,
COALESCE(output_url, ''), COALESCE(output_storage_path, ''),
COALESCE(duration, 0), COALESCE(error_message, ''),
COALESCE(upscale_status, ''), COALESCE(upscale_model, ''),
COALESCE(upscale_prediction_id, ''), COALESCE(upscaled_video_url, ''),
COALESCE(upscaled_storage_path, ''), COALESCE(upscale_error_message, ''),
created_at, updated_at`

// Create inserts a new generation row.
func (r *GenerationRepositoryPG) Create(ctx context.Context, g *domain.Generation) error {
	query := `
INSERT INTO generations (
	id, type, provider, prediction_id, member_id, music_id,
	motion_video_id, concept_image_id, prompt, image_url,
	motion_video_url, motion_preset_id, status, duration
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`
	_, err := r.sql.Exec(ctx, query,
		g.ID,
		g.Type,
		g.Provider,
		nullable(g.PredictionID),
		nullable(g.MemberID),
		nullable(g.MusicID),
		nullable(g.MotionVideoID),
		nullable(g.ConceptImageID),
		nullable(g.Prompt),
		g.ImageURL,
		nullable(g.MotionVideoURL),
		nullable(g.MotionPresetID),
		g.Status,
		nullableInt(g.Duration),
	)
	return err
}

// GetByID fetches a generation by its identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1;`
	row := r.sql.QueryRow(ctx, query, id)
	g, err := scanGeneration(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// List returns generations newest first.
func (r *GenerationRepositoryPG) List(ctx context.Context, limit, offset int) ([]domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations ORDER BY created_at DESC LIMIT $1 OFFSET $2;`
	rows, err := r.sql.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateLifecycle writes primary lifecycle fields. Nil pointers leave the
// corresponding column untouched.
func (r *GenerationRepositoryPG) UpdateLifecycle(ctx context.Context, id string, upd domain.LifecycleUpdate) error {
	query := `
UPDATE generations
SET status = $2,
    output_url = COALESCE($3, output_url),
    output_storage_path = COALESCE($4, output_storage_path),
    error_message = COALESCE($5, error_message),
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.sql.Exec(ctx, query, id, upd.Status, upd.OutputURL, upd.StoragePath, upd.ErrorMessage)
	return err
}

// UpdateUpscaleLifecycle writes the upscale sub-lifecycle fields.
func (r *GenerationRepositoryPG) UpdateUpscaleLifecycle(ctx context.Context, id string, upd domain.LifecycleUpdate) error {
	query := `
UPDATE generations
SET upscale_status = $2,
    upscaled_video_url = COALESCE($3, upscaled_video_url),
    upscaled_storage_path = COALESCE($4, upscaled_storage_path),
    upscale_error_message = COALESCE($5, upscale_error_message),
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.sql.Exec(ctx, query, id, upd.Status, upd.OutputURL, upd.StoragePath, upd.ErrorMessage)
	return err
}

// StartUpscale begins a fresh upscale sub-lifecycle, clearing any previous run.
func (r *GenerationRepositoryPG) StartUpscale(ctx context.Context, id string, model domain.UpscaleModel, predictionID string) error {
	query := `
UPDATE generations
SET upscale_status = 'pending',
    upscale_model = $2,
    upscale_prediction_id = $3,
    upscaled_video_url = NULL,
    upscaled_storage_path = NULL,
    upscale_error_message = NULL,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.sql.Exec(ctx, query, id, model, predictionID)
	return err
}

// UpdateMusic re-links the selected music track.
func (r *GenerationRepositoryPG) UpdateMusic(ctx context.Context, id, musicID string) error {
	query := `UPDATE generations SET music_id = $2, updated_at = NOW() WHERE id = $1;`
	_, err := r.sql.Exec(ctx, query, id, nullable(musicID))
	return err
}

// UpdateMotionVideo re-links the motion reference clip.
func (r *GenerationRepositoryPG) UpdateMotionVideo(ctx context.Context, id, motionVideoID string) error {
	query := `UPDATE generations SET motion_video_id = $2, updated_at = NOW() WHERE id = $1;`
	_, err := r.sql.Exec(ctx, query, id, nullable(motionVideoID))
	return err
}

// UpdateConceptImage re-links the concept reference image.
func (r *GenerationRepositoryPG) UpdateConceptImage(ctx context.Context, id, conceptImageID string) error {
	query := `UPDATE generations SET concept_image_id = $2, updated_at = NOW() WHERE id = $1;`
	_, err := r.sql.Exec(ctx, query, id, nullable(conceptImageID))
	return err
}

// DetachMotionVideo nulls the soft reference on every row pointing at the
// motion video, preserving the generations themselves.
func (r *GenerationRepositoryPG) DetachMotionVideo(ctx context.Context, motionVideoID string) error {
	query := `UPDATE generations SET motion_video_id = NULL, updated_at = NOW() WHERE motion_video_id = $1;`
	_, err := r.sql.Exec(ctx, query, motionVideoID)
	return err
}

// DetachConceptImage nulls the soft reference on every row pointing at the
// concept image.
func (r *GenerationRepositoryPG) DetachConceptImage(ctx context.Context, conceptImageID string) error {
	query := `UPDATE generations SET concept_image_id = NULL, updated_at = NOW() WHERE concept_image_id = $1;`
	_, err := r.sql.Exec(ctx, query, conceptImageID)
	return err
}

// Delete removes the row.
func (r *GenerationRepositoryPG) Delete(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, `DELETE FROM generations WHERE id = $1;`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var g domain.Generation
	if err := row.Scan(
		&g.ID,
		&g.Type,
		&g.Provider,
		&g.PredictionID,
		&g.MemberID,
		&g.MusicID,
		&g.MotionVideoID,
		&g.ConceptImageID,
		&g.Prompt,
		&g.ImageURL,
		&g.MotionVideoURL,
		&g.MotionPresetID,
		&g.Status,
		&g.OutputURL,
		&g.OutputStoragePath,
		&g.Duration,
		&g.ErrorMessage,
		&g.UpscaleStatus,
		&g.UpscaleModel,
		&g.UpscalePredictionID,
		&g.UpscaledVideoURL,
		&g.UpscaledStoragePath,
		&g.UpscaleErrorMessage,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
