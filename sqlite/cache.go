package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/AbstractUmbra/doccache"
	"github.com/cespare/xxhash/v2"
)

// Compile-time interface verification.
var _ doccache.SymbolCache = (*SymbolCache)(nil)

// SymbolCache implements doccache.SymbolCache using SQLite. Rendered
// markdown is stored one row per symbol, grouped under a page row that
// carries the shared TTL.
type SymbolCache struct {
	db *DB

	// Now reports the current time. Overridable in tests.
	Now func() time.Time

	// Shadow map of page expiry times so not every Set has to query the
	// pages table. Best effort only: a wrong entry causes at most a
	// redundant expiry write, never an incorrect TTL.
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewSymbolCache creates a new SymbolCache backed by db.
func NewSymbolCache(db *DB) *SymbolCache {
	return &SymbolCache{
		db:      db,
		Now:     time.Now,
		expires: make(map[string]time.Time),
	}
}

// hashContent computes xxHash of content and returns a hex string.
func hashContent(content string) string {
	h := xxhash.Sum64String(content)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}

// Get returns the cached markdown for item, or ENOTFOUND if the symbol
// is not cached or its page has expired.
func (c *SymbolCache) Get(ctx context.Context, item doccache.DocItem) (string, error) {
	key := item.PageKey()

	var markdown string
	var expiresAt int64
	err := c.db.QueryRowContext(ctx, `
		SELECT s.markdown, p.expires_at
		FROM symbols s
		JOIN pages p ON p.key = s.page_key
		WHERE s.page_key = ? AND s.symbol_id = ?
	`, key, item.SymbolID).Scan(&markdown, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return "", doccache.Errorf(doccache.ENOTFOUND, "symbol %q not cached", item.SymbolID)
	}
	if err != nil {
		return "", err
	}

	if expiresAt <= c.Now().Unix() {
		// Lazily drop the expired page; symbol rows cascade.
		_, _ = c.db.ExecContext(ctx, "DELETE FROM pages WHERE key = ?", key)
		c.mu.Lock()
		delete(c.expires, key)
		c.mu.Unlock()
		return "", doccache.Errorf(doccache.ENOTFOUND, "symbol %q not cached", item.SymbolID)
	}

	return markdown, nil
}

// Set stores the rendered markdown for item. All symbols from a single
// page share one page row, expiring a week after the first write.
func (c *SymbolCache) Set(ctx context.Context, item doccache.DocItem, markdown string) error {
	key := item.PageKey()
	now := c.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	needsExpire := false
	if expire, ok := c.expires[key]; !ok {
		// An expiry is only set if the page row didn't exist before.
		var expiresAt int64
		err := c.db.QueryRowContext(ctx, "SELECT expires_at FROM pages WHERE key = ?", key).Scan(&expiresAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			needsExpire = true
		case err != nil:
			return err
		case expiresAt <= now.Unix():
			needsExpire = true
		default:
			c.expires[key] = time.Unix(expiresAt, 0)
		}
	} else if now.After(expire) {
		// The page expired since we last wrote it.
		needsExpire = true
	}

	if needsExpire {
		expiry := now.Add(doccache.PageTTL * time.Second)
		// Replacing the page row drops any leftover symbols via cascade.
		if _, err := c.db.ExecContext(ctx, "DELETE FROM pages WHERE key = ?", key); err != nil {
			return err
		}
		if _, err := c.db.ExecContext(ctx,
			"INSERT INTO pages (key, expires_at) VALUES (?, ?)", key, expiry.Unix()); err != nil {
			return err
		}
		c.expires[key] = expiry
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO symbols (page_key, symbol_id, markdown, content_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (page_key, symbol_id) DO UPDATE SET
			markdown = excluded.markdown,
			content_hash = excluded.content_hash
	`, key, item.SymbolID, markdown, hashContent(markdown))
	return err
}

// packageKeyPattern builds a LIKE pattern matching every key prefixed
// by pkg. Package names may contain underscores, which LIKE treats as
// a single-character wildcard, so metacharacters are escaped.
func packageKeyPattern(pkg string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(pkg) + ":%"
}

// DeletePackage removes all cached pages for pkg, or every page when
// pkg is "*". Reports whether anything was deleted.
func (c *SymbolCache) DeletePackage(ctx context.Context, pkg string) (bool, error) {
	var result sql.Result
	var err error
	if pkg == "*" {
		result, err = c.db.ExecContext(ctx, "DELETE FROM pages")
	} else {
		result, err = c.db.ExecContext(ctx, `DELETE FROM pages WHERE key LIKE ? ESCAPE '\'`, packageKeyPattern(pkg))
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	for key := range c.expires {
		if pkg == "*" || strings.HasPrefix(key, pkg+":") {
			delete(c.expires, key)
		}
	}
	c.mu.Unlock()

	return rows > 0, nil
}
