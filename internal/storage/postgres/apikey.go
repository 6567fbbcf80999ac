package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrc-bakery/storefront/internal/auth"
)

const (
	findAPIKeySQL = `SELECT id, name, key_hash FROM admin_api_keys
		WHERE key_hash = $1 AND active = TRUE`

	upsertAPIKeySQL = `INSERT INTO admin_api_keys (key_hash, name) VALUES ($1, $2)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, active = TRUE`
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository looks up admin API keys by hash.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash returns the active key with the given hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.KeyInfo, error) {
	var info auth.KeyInfo
	err := r.pool.QueryRow(ctx, findAPIKeySQL, hash).Scan(&info.ID, &info.Name, &info.KeyHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}
	return &info, nil
}

// Upsert stores a key hash under name, reactivating it if it existed.
func (r *APIKeyRepository) Upsert(ctx context.Context, name, hash string) error {
	if _, err := r.pool.Exec(ctx, upsertAPIKeySQL, hash, name); err != nil {
		return errors.Wrapf(err, "upsert api key %q", name)
	}
	return nil
}
