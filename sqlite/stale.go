package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AbstractUmbra/doccache"
)

// Compile-time interface verification.
var _ doccache.StaleCounter = (*StaleCounter)(nil)

// StaleCounter implements doccache.StaleCounter using SQLite.
type StaleCounter struct {
	db *DB

	// Now reports the current time. Overridable in tests.
	Now func() time.Time
}

// NewStaleCounter creates a new StaleCounter backed by db.
func NewStaleCounter(db *DB) *StaleCounter {
	return &StaleCounter{db: db, Now: time.Now}
}

func staleKey(item doccache.DocItem) string {
	return item.PageKey() + ":" + item.SymbolID
}

// Increment bumps the counter for item by one and resets its expiry.
// Counters that have already expired restart at 1.
func (c *StaleCounter) Increment(ctx context.Context, item doccache.DocItem) (int64, error) {
	key := staleKey(item)
	now := c.Now()

	var count int64
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		"SELECT count, expires_at FROM stale_counts WHERE key = ?", key).Scan(&count, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		count = 0
	case err != nil:
		return 0, err
	case expiresAt <= now.Unix():
		count = 0
	}

	count++
	expiry := now.Add(doccache.StaleTTL * time.Second).Unix()
	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO stale_counts (key, count, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET count = excluded.count, expires_at = excluded.expires_at
	`, key, count, expiry); err != nil {
		return 0, err
	}

	return count, nil
}

// DeletePackage removes all counters for pkg, or every counter when
// pkg is "*". Reports whether anything was deleted.
func (c *StaleCounter) DeletePackage(ctx context.Context, pkg string) (bool, error) {
	var result sql.Result
	var err error
	if pkg == "*" {
		result, err = c.db.ExecContext(ctx, "DELETE FROM stale_counts")
	} else {
		result, err = c.db.ExecContext(ctx, `DELETE FROM stale_counts WHERE key LIKE ? ESCAPE '\'`, packageKeyPattern(pkg))
	}
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
