package doccache

import "context"

// PageTTL is how long a cached page's symbols stay valid. The TTL is
// shared by every symbol on a page and set when the page is first
// written.
const PageTTL = 604800 // seconds, one week

// StaleTTL is how long stale-symbol counters are kept.
const StaleTTL = PageTTL * 3 // seconds, three weeks

// SymbolCache persists rendered symbol markdown, grouped by source
// page. Symbols from one page share a single TTL.
type SymbolCache interface {
	// Get returns the rendered markdown for item.
	// Returns ENOTFOUND if the symbol is not cached or its page expired.
	Get(ctx context.Context, item DocItem) (string, error)

	// Set stores the rendered markdown for item. The page's TTL is set
	// on first write and refreshed only once it has elapsed.
	Set(ctx context.Context, item DocItem, markdown string) error

	// DeletePackage removes every cached page belonging to the package.
	// The "*" wildcard removes all pages. Reports whether anything was
	// deleted.
	DeletePackage(ctx context.Context, pkg string) (bool, error)
}

// StaleCounter tracks how often a symbol was requested but no longer
// present on its source page, rate-limiting stale notifications.
type StaleCounter interface {
	// Increment bumps the counter for item by one, resets its expiry to
	// StaleTTL, and returns the new value. Expired counters restart at 1.
	Increment(ctx context.Context, item DocItem) (int64, error)

	// DeletePackage removes every counter belonging to the package.
	// The "*" wildcard removes all counters. Reports whether anything
	// was deleted.
	DeletePackage(ctx context.Context, pkg string) (bool, error)
}
