package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/edvin/delivery/internal/model"
)

// APIKeyService manages API key operations against the core database.
type APIKeyService struct {
	db DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key for a user, stores the hash, and returns the
// model along with the raw key string. The raw key must be shown to the user
// exactly once.
func (s *APIKeyService) Create(ctx context.Context, userID int64, name string) (*model.APIKey, string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "dlv_" + hex.EncodeToString(rawBytes)

	hash := sha256.Sum256([]byte(rawKey))
	key := &model.APIKey{
		UserID:  userID,
		Name:    name,
		KeyHash: hex.EncodeToString(hash[:]),
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (user_id, name, key_hash, created_at)
		 VALUES ($1, $2, $3, now())
		 RETURNING id, created_at`,
		key.UserID, key.Name, key.KeyHash,
	).Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	return key, rawKey, nil
}

// Revoke marks an API key as revoked.
func (s *APIKeyService) Revoke(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("get api key %d: %w", id, ErrNotFound)
	}
	return nil
}

// List returns every API key. Hashes never leave the database layer in raw
// form; the model omits them from JSON.
func (s *APIKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, user_id, name, key_hash, revoked_at, created_at FROM api_keys ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.RevokedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}
