// pkg/tokens/postgres.go
package tokens

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed token store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates the token table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS shop_tokens (
  shop text PRIMARY KEY,
  slug text,
  access_token text NOT NULL,
  scope text DEFAULT '',
  installed_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS shop_tokens_slug_idx ON shop_tokens(slug);
`)
	return err
}

func (p *pgStore) Save(ctx context.Context, t ShopToken) error {
	_, err := p.dbPool.Exec(ctx, `INSERT INTO shop_tokens(shop,slug,access_token,scope)
	  VALUES ($1,$2,$3,$4)
	  ON CONFLICT (shop) DO UPDATE SET slug=EXCLUDED.slug,access_token=EXCLUDED.access_token,scope=EXCLUDED.scope,updated_at=NOW()`,
		t.Shop, t.Slug, t.AccessToken, t.Scope)
	return err
}

func (p *pgStore) Get(ctx context.Context, shop string) (ShopToken, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT shop,COALESCE(slug,''),access_token,COALESCE(scope,''),installed_at FROM shop_tokens WHERE shop=$1`, shop)
	var t ShopToken
	if err := row.Scan(&t.Shop, &t.Slug, &t.AccessToken, &t.Scope, &t.InstalledAt); err != nil {
		return ShopToken{}, ErrNotFound
	}
	return t, nil
}
