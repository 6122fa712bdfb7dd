package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/AbstractUmbra/doccache"
)

// Ensure LoggingSymbolCache implements doccache.SymbolCache.
var _ doccache.SymbolCache = (*LoggingSymbolCache)(nil)

// LoggingSymbolCache wraps a SymbolCache with debug logging for cache
// traffic.
type LoggingSymbolCache struct {
	next   doccache.SymbolCache
	logger *slog.Logger
}

// NewLoggingSymbolCache creates a new LoggingSymbolCache.
func NewLoggingSymbolCache(next doccache.SymbolCache, logger *slog.Logger) *LoggingSymbolCache {
	return &LoggingSymbolCache{next: next, logger: logger}
}

// Get delegates to the wrapped cache, logging hits and misses.
func (c *LoggingSymbolCache) Get(ctx context.Context, item doccache.DocItem) (string, error) {
	begin := time.Now()
	markdown, err := c.next.Get(ctx, item)
	switch {
	case err == nil:
		c.logger.Debug("cache hit",
			"page", item.PageKey(),
			"symbol", item.SymbolID,
			"duration", time.Since(begin),
		)
	case doccache.ErrorCode(err) == doccache.ENOTFOUND:
		c.logger.Debug("cache miss",
			"page", item.PageKey(),
			"symbol", item.SymbolID,
		)
	default:
		c.logger.Error("cache get",
			"page", item.PageKey(),
			"symbol", item.SymbolID,
			"err", err,
		)
	}
	return markdown, err
}

// Set delegates to the wrapped cache.
func (c *LoggingSymbolCache) Set(ctx context.Context, item doccache.DocItem, markdown string) error {
	begin := time.Now()
	err := c.next.Set(ctx, item, markdown)
	if err != nil {
		c.logger.Error("cache set",
			"page", item.PageKey(),
			"symbol", item.SymbolID,
			"err", err,
		)
		return err
	}
	c.logger.Debug("cache set",
		"page", item.PageKey(),
		"symbol", item.SymbolID,
		"bytes", len(markdown),
		"duration", time.Since(begin),
	)
	return nil
}

// DeletePackage delegates to the wrapped cache, logging the outcome.
func (c *LoggingSymbolCache) DeletePackage(ctx context.Context, pkg string) (bool, error) {
	deleted, err := c.next.DeletePackage(ctx, pkg)
	if err != nil {
		c.logger.Error("cache delete package", "package", pkg, "err", err)
		return false, err
	}
	c.logger.Info("cache delete package", "package", pkg, "deleted", deleted)
	return deleted, nil
}
