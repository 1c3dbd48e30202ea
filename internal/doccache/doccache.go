// Package doccache persists fetched reference documents in SQLite so repeat
// runs can revalidate by ETag instead of downloading every page again.
package doccache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bridge-geocode/internal/fetcher"
)

// Cache is a SQLite-backed document store keyed by URL.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is a cached document and the time it was last confirmed current.
type Entry struct {
	Doc       *fetcher.Document
	FetchedAt time.Time
}

// Open opens the cache database at path and configures WAL mode.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "doccache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "doccache: exec %s", pragma)
		}
	}
	return &Cache{db: db, now: time.Now}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS documents (
	url          TEXT PRIMARY KEY,
	etag         TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	body         BLOB NOT NULL,
	fetched_at   INTEGER NOT NULL
);
`

// Migrate creates the documents table if needed.
func (c *Cache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "doccache: migrate")
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for url, or nil if there is none.
func (c *Cache) Get(ctx context.Context, url string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT url, etag, content_type, body, fetched_at FROM documents WHERE url = ?`,
		url,
	)

	var (
		doc       fetcher.Document
		fetchedAt int64
	)
	err := row.Scan(&doc.URL, &doc.ETag, &doc.ContentType, &doc.Body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "doccache: get %s", url)
	}
	return &Entry{Doc: &doc, FetchedAt: time.Unix(fetchedAt, 0)}, nil
}

// Put stores doc, replacing any previous copy.
func (c *Cache) Put(ctx context.Context, doc *fetcher.Document) error {
	body := doc.Body
	if body == nil {
		body = []byte{}
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (url, etag, content_type, body, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			etag = excluded.etag,
			content_type = excluded.content_type,
			body = excluded.body,
			fetched_at = excluded.fetched_at`,
		doc.URL, doc.ETag, doc.ContentType, body, c.now().Unix(),
	)
	return eris.Wrapf(err, "doccache: put %s", doc.URL)
}

// Touch marks the cached copy of url as confirmed current.
func (c *Cache) Touch(ctx context.Context, url string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET fetched_at = ? WHERE url = ?`,
		c.now().Unix(), url,
	)
	if err != nil {
		return eris.Wrapf(err, "doccache: touch %s", url)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "doccache: rows affected")
	}
	if n == 0 {
		return eris.Errorf("doccache: document not found: %s", url)
	}
	return nil
}

// Len returns the number of cached documents.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "doccache: count")
	}
	return n, nil
}
