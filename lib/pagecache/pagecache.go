package pagecache

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS page (
	key        TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	content    TEXT NOT NULL
);
`

// Cache stores raw scraped markup keyed by URL so repeat runs, and
// offline runs against pre-populated fixtures, skip the network.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

func Open(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) lookup(ctx context.Context, key string) (string, time.Time, bool) {
	row := c.db.QueryRowContext(
		ctx,
		`SELECT fetched_at, content FROM page WHERE key = ?`,
		key,
	)

	var fetchedAt int64
	var content string
	err := row.Scan(&fetchedAt, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, false
	}
	if err != nil {
		slog.Warn("page cache lookup failed", "key", key, "err", err)
		return "", time.Time{}, false
	}
	return content, time.Unix(fetchedAt, 0), true
}

// Get returns cached content only while it is still fresh.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	content, fetchedAt, ok := c.lookup(ctx, key)
	if !ok {
		return "", false
	}
	age := time.Since(fetchedAt)
	if age > c.ttl {
		slog.Info("page cache expired", "key", key, "age", age.Round(time.Second))
		return "", false
	}
	slog.Info("page cache hit", "key", key, "age", age.Round(time.Second))
	return content, true
}

// GetStale returns cached content regardless of age. used as a
// fallback when the upstream refuses to serve a page at all.
func (c *Cache) GetStale(ctx context.Context, key string) (string, bool) {
	content, _, ok := c.lookup(ctx, key)
	if ok {
		slog.Info("stale page cache fallback", "key", key)
	}
	return content, ok
}

func (c *Cache) Put(ctx context.Context, key, content string) error {
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO page (key, fetched_at, content) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET fetched_at = excluded.fetched_at, content = excluded.content`,
		key, time.Now().Unix(), content,
	)
	if err != nil {
		return err
	}
	slog.Info("cached page", "key", key, "bytes", len(content))
	return nil
}
