package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresSource is a PostgreSQL-backed content source. Each module is one
// row of content_modules; its bundle is stored as JSONB.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a content source reading from pool. The schema
// must already exist (see database.DB.Migrate).
func NewPostgresSource(pool *pgxpool.Pool) (*PostgresSource, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresSource{pool: pool}, nil
}

// Load reads every module row and builds a validated catalog.
func (s *PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, icon, coming_soon, bundle
		 FROM content_modules
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query content modules: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.Module.ID, &e.Module.Title, &e.Module.Description, &e.Module.Icon, &e.Module.ComingSoon, &raw); err != nil {
			return nil, fmt.Errorf("scan content module: %w", err)
		}
		if len(raw) > 0 {
			var b Bundle
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("decode bundle of module %d: %w", e.Module.ID, err)
			}
			e.Bundle = &b
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content modules: %w", err)
	}

	c, err := NewCatalog(entries)
	if err != nil {
		return nil, fmt.Errorf("loading content from postgres: %w", err)
	}
	slog.Info("content loaded", "source", "postgres", "modules", c.Len())
	return c, nil
}

// Save replaces the stored content with the catalog in one transaction.
// Rows for modules no longer in the catalog are removed.
func (s *PostgresSource) Save(ctx context.Context, c *Catalog) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	entries := c.Entries()
	ids := make([]int32, 0, len(entries))

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			var raw []byte
			if e.Bundle != nil {
				var err error
				if raw, err = json.Marshal(e.Bundle); err != nil {
					return fmt.Errorf("encode bundle of module %d: %w", e.Module.ID, err)
				}
			}
			m := e.Module
			if _, err := tx.Exec(ctx,
				`INSERT INTO content_modules (id, title, description, icon, coming_soon, bundle, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())
				 ON CONFLICT (id) DO UPDATE SET
				   title = EXCLUDED.title,
				   description = EXCLUDED.description,
				   icon = EXCLUDED.icon,
				   coming_soon = EXCLUDED.coming_soon,
				   bundle = EXCLUDED.bundle,
				   updated_at = NOW()`,
				m.ID, m.Title, m.Description, m.Icon, m.ComingSoon, raw,
			); err != nil {
				return fmt.Errorf("upsert module %d: %w", m.ID, err)
			}
			ids = append(ids, int32(m.ID))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM content_modules WHERE NOT (id = ANY($1))`, ids); err != nil {
			return fmt.Errorf("prune content modules: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("content saved", "source", "postgres", "modules", len(entries))
	return nil
}
