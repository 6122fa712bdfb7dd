package mock

import (
	"context"

	"github.com/AbstractUmbra/doccache"
)

var _ doccache.SymbolCache = (*SymbolCache)(nil)

// SymbolCache is a mock implementation of doccache.SymbolCache.
type SymbolCache struct {
	GetFn           func(ctx context.Context, item doccache.DocItem) (string, error)
	SetFn           func(ctx context.Context, item doccache.DocItem, markdown string) error
	DeletePackageFn func(ctx context.Context, pkg string) (bool, error)
}

func (c *SymbolCache) Get(ctx context.Context, item doccache.DocItem) (string, error) {
	return c.GetFn(ctx, item)
}

func (c *SymbolCache) Set(ctx context.Context, item doccache.DocItem, markdown string) error {
	return c.SetFn(ctx, item, markdown)
}

func (c *SymbolCache) DeletePackage(ctx context.Context, pkg string) (bool, error) {
	return c.DeletePackageFn(ctx, pkg)
}

var _ doccache.StaleCounter = (*StaleCounter)(nil)

// StaleCounter is a mock implementation of doccache.StaleCounter.
type StaleCounter struct {
	IncrementFn     func(ctx context.Context, item doccache.DocItem) (int64, error)
	DeletePackageFn func(ctx context.Context, pkg string) (bool, error)
}

func (c *StaleCounter) Increment(ctx context.Context, item doccache.DocItem) (int64, error) {
	return c.IncrementFn(ctx, item)
}

func (c *StaleCounter) DeletePackage(ctx context.Context, pkg string) (bool, error) {
	return c.DeletePackageFn(ctx, pkg)
}
