package repo

import (
	"context"

	"fanshorts/internal/domain"
	"fanshorts/internal/infra"
)

// CharacterImageRepositoryPG implements domain.CharacterImageRepository.
type CharacterImageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCharacterImageRepository constructs a new character image repository instance.
func NewCharacterImageRepository(sql infra.SQLExecutor) *CharacterImageRepositoryPG {
	return &CharacterImageRepositoryPG{sql: sql}
}

// Create inserts a new character image row.
func (r *CharacterImageRepositoryPG) Create(ctx context.Context, c *domain.CharacterImage) error {
	query := `
INSERT INTO character_images (id, character_id, name, storage_path, public_url)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.sql.Exec(ctx, query, c.ID, c.CharacterID, c.Name, c.StoragePath, c.PublicURL)
	return err
}

// GetByID fetches a character image by its identifier.
func (r *CharacterImageRepositoryPG) GetByID(ctx context.Context, id string) (*domain.CharacterImage, error) {
	query := `
SELECT id, character_id, name, storage_path, public_url, created_at
FROM character_images
WHERE id = $1;
`
	row := r.sql.QueryRow(ctx, query, id)
	var c domain.CharacterImage
	if err := row.Scan(&c.ID, &c.CharacterID, &c.Name, &c.StoragePath, &c.PublicURL, &c.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByCharacter returns uploaded images for one roster character.
func (r *CharacterImageRepositoryPG) ListByCharacter(ctx context.Context, characterID string) ([]domain.CharacterImage, error) {
	query := `
SELECT id, character_id, name, storage_path, public_url, created_at
FROM character_images
WHERE character_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.sql.Query(ctx, query, characterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CharacterImage
	for rows.Next() {
		var c domain.CharacterImage
		if err := rows.Scan(&c.ID, &c.CharacterID, &c.Name, &c.StoragePath, &c.PublicURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes the row.
func (r *CharacterImageRepositoryPG) Delete(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, `DELETE FROM character_images WHERE id = $1;`, id)
	return err
}

var _ domain.CharacterImageRepository = (*CharacterImageRepositoryPG)(nil)
