// Package buildcache stores generated assembly keyed by a content hash of the
// source, so unchanged programs skip the middle and back ends on rebuild.
package buildcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	hash       TEXT PRIMARY KEY,
	assembly   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Cache is a content-addressed store of compilation artifacts backed by
// SQLite.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) a cache database at the given path. An
// empty path yields an in-memory cache that lasts until Close.
func Open(ctx context.Context, path string) (*Cache, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}

	// SQLite serves a single compiler process; one connection avoids
	// "database is locked" errors from concurrent writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach build cache: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize build cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// HashSource returns the cache key for a source text.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get looks up the assembly cached for a source hash.
func (c *Cache) Get(ctx context.Context, hash string) (string, bool, error) {
	var assembly string
	err := c.db.QueryRowContext(ctx,
		"SELECT assembly FROM artifacts WHERE hash = ?", hash).Scan(&assembly)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("build cache lookup failed: %w", err)
	}
	return assembly, true, nil
}

// Put stores the assembly generated for a source hash, replacing any prior
// entry.
func (c *Cache) Put(ctx context.Context, hash, assembly string) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO artifacts (hash, assembly) VALUES (?, ?)", hash, assembly)
	if err != nil {
		return fmt.Errorf("build cache store failed: %w", err)
	}
	return nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries   int
	TotalSize int64
}

// Stats reports how many artifacts are cached and their combined size.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(assembly)), 0) FROM artifacts").
		Scan(&stats.Entries, &stats.TotalSize)
	if err != nil {
		return Stats{}, fmt.Errorf("build cache stats failed: %w", err)
	}
	return stats, nil
}

// Clear removes every cached artifact.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM artifacts"); err != nil {
		return fmt.Errorf("build cache clear failed: %w", err)
	}
	return nil
}
