package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/volume-discount/internal/domain/shop"
)

var _ shop.Repository = (*MetafieldRepository)(nil)

const findMetafieldSQL = `SELECT value FROM shop_metafields
WHERE shop_id = $1 AND namespace = $2 AND key = $3`

// MetafieldRepository implements shop.Repository backed by PostgreSQL.
type MetafieldRepository struct {
	pool *pgxpool.Pool
}

// NewMetafieldRepository returns a MetafieldRepository that uses the given pool.
func NewMetafieldRepository(pool *pgxpool.Pool) *MetafieldRepository {
	return &MetafieldRepository{pool: pool}
}

// FindMetafield returns the metafield stored under key.
// Returns shop.ErrMetafieldNotFound when no such row exists.
func (r *MetafieldRepository) FindMetafield(ctx context.Context, key shop.MetafieldKey) (*shop.Metafield, error) {
	var value *string
	err := r.pool.QueryRow(ctx, findMetafieldSQL, key.ShopID, key.Namespace, key.Key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shop.ErrMetafieldNotFound
		}
		return nil, fmt.Errorf("finding metafield %s/%s for shop %q: %w", key.Namespace, key.Key, key.ShopID, err)
	}

	return &shop.Metafield{MetafieldKey: key, Value: value}, nil
}
