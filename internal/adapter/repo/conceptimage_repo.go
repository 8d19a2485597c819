package repo

import (
	"context"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
)

// ConceptImageRepositoryPG implements domain.ConceptImageRepository.
type ConceptImageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewConceptImageRepository constructs a new concept image repository instance.
func NewConceptImageRepository(sql infra.SQLExecutor) *ConceptImageRepositoryPG {
	return &ConceptImageRepositoryPG{sql: sql}
}

// Create inserts a new concept image row.
func (r *ConceptImageRepositoryPG) Create(ctx context.Context, c *domain.ConceptImage) error {
	query := `
INSERT INTO concept_images (id, name, storage_path, public_url)
VALUES ($1, $2, $3, $4);
`
	_, err := r.sql.Exec(ctx, query, c.ID, c.Name, c.StoragePath, c.PublicURL)
	return err
}

// GetByID fetches a concept image by its identifier.
func (r *ConceptImageRepositoryPG) GetByID(ctx context.Context, id string) (*domain.ConceptImage, error) {
	query := `
SELECT id, name, storage_path, public_url, created_at
FROM concept_images
WHERE id = $1;
`
	row := r.sql.QueryRow(ctx, query, id)
	var c domain.ConceptImage
	if err := row.Scan(&c.ID, &c.Name, &c.StoragePath, &c.PublicURL, &c.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all concept images, newest first.
func (r *ConceptImageRepositoryPG) List(ctx context.Context) ([]domain.ConceptImage, error) {
	query := `
SELECT id, name, storage_path, public_url, created_at
FROM concept_images
ORDER BY created_at DESC;
`
	rows, err := r.sql.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ConceptImage
	for rows.Next() {
		var c domain.ConceptImage
		if err := rows.Scan(&c.ID, &c.Name, &c.StoragePath, &c.PublicURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Rename updates the display name.
func (r *ConceptImageRepositoryPG) Rename(ctx context.Context, id, name string) error {
	_, err := r.sql.Exec(ctx, `UPDATE concept_images SET name = $2 WHERE id = $1;`, id, name)
	return err
}

// Delete removes the row.
func (r *ConceptImageRepositoryPG) Delete(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, `DELETE FROM concept_images WHERE id = $1;`, id)
	return err
}

var _ domain.ConceptImageRepository = (*ConceptImageRepositoryPG)(nil)
