package repo

import (
	"context"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
)

// MotionVideoRepositoryPG implements domain.MotionVideoRepository.
type MotionVideoRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewMotionVideoRepository constructs a new motion video repository instance.
func NewMotionVideoRepository(sql infra.SQLExecutor) *MotionVideoRepositoryPG {
	return &MotionVideoRepositoryPG{sql: sql}
}

// Create inserts a new motion video row.
func (r *MotionVideoRepositoryPG) Create(ctx context.Context, v *domain.MotionVideo) error {
	query := `
INSERT INTO motion_videos (id, name, storage_path, thumbnail_path, duration)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.sql.Exec(ctx, query, v.ID, v.Name, v.StoragePath, nullable(v.ThumbnailPath), v.Duration)
	return err
}

// GetByID fetches a motion video by its identifier.
func (r *MotionVideoRepositoryPG) GetByID(ctx context.Context, id string) (*domain.MotionVideo, error) {
	query := `
SELECT id, name, storage_path, COALESCE(thumbnail_path, ''), duration, created_at
FROM motion_videos
WHERE id = $1;
`
	row := r.sql.QueryRow(ctx, query, id)
	var v domain.MotionVideo
	if err := row.Scan(&v.ID, &v.Name, &v.StoragePath, &v.ThumbnailPath, &v.Duration, &v.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// List returns all motion videos, newest first.
func (r *MotionVideoRepositoryPG) List(ctx context.Context) ([]domain.MotionVideo, error) {
	query := `
SELECT id, name, storage_path, COALESCE(thumbnail_path, ''), duration, created_at
FROM motion_videos
ORDER BY created_at DESC;
`
	rows, err := r.sql.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.MotionVideo
	for rows.Next() {
		var v domain.MotionVideo
		if err := rows.Scan(&v.ID, &v.Name, &v.StoragePath, &v.ThumbnailPath, &v.Duration, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of stored motion videos.
func (r *MotionVideoRepositoryPG) Count(ctx context.Context) (int, error) {
	row := r.sql.QueryRow(ctx, `SELECT COUNT(*) FROM motion_videos;`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Rename updates the display name.
func (r *MotionVideoRepositoryPG) Rename(ctx context.Context, id, name string) error {
	_, err := r.sql.Exec(ctx, `UPDATE motion_videos SET name = $2 WHERE id = $1;`, id, name)
	return err
}

// Delete removes the row.
func (r *MotionVideoRepositoryPG) Delete(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, `DELETE FROM motion_videos WHERE id = $1;`, id)
	return err
}

var _ domain.MotionVideoRepository = (*MotionVideoRepositoryPG)(nil)
