// Package catalog is the durable registry of collections: which
// collections exist, their shard count, and when they were created. It
// is the one piece of server-wide metadata that is not itself an
// assoc.Table — collections are few and long-lived, so a small
// PostgreSQL table (via pgxpool, as the reference codebase's
// internal/adapter/postgresql package already wires up) fits better
// than another hash table.
package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Meta describes one registered collection.
type Meta struct {
	Name       string
	ShardCount int
	CreatedAt  time.Time
}

// Catalog is a PostgreSQL-backed collection registry.
type Catalog struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and ensures the collections table exists.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	c := &Catalog{pool: pool}
	if err := c.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS collections (
	name        TEXT PRIMARY KEY,
	shard_count INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	_, err := c.pool.Exec(ctx, ddl)
	return err
}

// Register creates a new collection entry. Registering a name again with
// the same shard count is a no-op; it returns ErrAlreadyExists only if
// name is already registered with a different shard count.
func (c *Catalog) Register(ctx context.Context, name string, shardCount int) error {
	if err := validateName(name); err != nil {
		return err
	}
	if shardCount < 1 {
		shardCount = 1
	}

	_, err := c.pool.Exec(ctx,
		`INSERT INTO collections (name, shard_count) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, shardCount)
	if err != nil {
		return err
	}

	// ON CONFLICT DO NOTHING swallows the duplicate silently; check
	// whether the row we expect to own is actually the one already there.
	existing, err := c.Get(ctx, name)
	if err != nil {
		return err
	}
	if existing.ShardCount != shardCount {
		return ErrAlreadyExists
	}
	return nil
}

// Get returns the metadata for a registered collection.
func (c *Catalog) Get(ctx context.Context, name string) (Meta, error) {
	if err := validateName(name); err != nil {
		return Meta{}, err
	}

	var m Meta
	err := c.pool.QueryRow(ctx,
		`SELECT name, shard_count, created_at FROM collections WHERE name = $1`,
		name,
	).Scan(&m.Name, &m.ShardCount, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, err
	}
	return m, nil
}

// List returns every registered collection, ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Meta, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT name, shard_count, created_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.Name, &m.ShardCount, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Drop removes a collection's catalog entry. It does not touch any
// associated on-disk data; callers are responsible for tearing down the
// collection's store before or after dropping its catalog row.
func (c *Catalog) Drop(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name)
	return err
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() {
	c.pool.Close()
}

func validateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	return nil
}
