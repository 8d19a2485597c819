package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"fanshorts/internal/infra"
)

const (
	ProviderReplicate  = "replicate"
	ProviderHiggsfield = "higgsfield"
)

const qSelectToken = `
SELECT token FROM integration_tokens WHERE provider = $1;
`

const qUpsertToken = `
INSERT INTO integration_tokens (provider, token, properties)
VALUES ($1, $2, $3)
ON CONFLICT (provider) DO UPDATE
SET token = EXCLUDED.token, properties = EXCLUDED.properties, updated_at = NOW();
`

// Store keeps provider API keys in the database so deployments can rotate
// tokens without restarting the service.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored token for the provider, or "" when none is set.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, qSelectToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) ReplicateToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderReplicate)
}

// HiggsfieldKeys returns the stored key/secret pair.
func (s *Store) HiggsfieldKeys(ctx context.Context) (string, string, error) {
	token, err := s.Token(ctx, ProviderHiggsfield)
	if err != nil || token == "" {
		return "", "", err
	}
	key, secret, ok := strings.Cut(token, ":")
	if !ok {
		return token, "", nil
	}
	return key, secret, nil
}

func (s *Store) SetReplicateToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("replicate token is required")
	}
	return s.upsert(ctx, ProviderReplicate, token, nil)
}

func (s *Store) SetHiggsfieldKeys(ctx context.Context, apiKey, secret string) error {
	apiKey = strings.TrimSpace(apiKey)
	secret = strings.TrimSpace(secret)
	if apiKey == "" || secret == "" {
		return errors.New("higgsfield api key and secret are required")
	}
	return s.upsert(ctx, ProviderHiggsfield, apiKey+":"+secret, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, qUpsertToken, provider, token, raw)
	return err
}
