package mock

import (
	"context"

	"github.com/AbstractUmbra/doccache"
)

var _ doccache.SymbolExtractor = (*SymbolExtractor)(nil)

// SymbolExtractor is a mock implementation of doccache.SymbolExtractor.
type SymbolExtractor struct {
	ExtractFn func(html string, item doccache.DocItem) (string, error)
}

func (e *SymbolExtractor) Extract(html string, item doccache.DocItem) (string, error) {
	return e.ExtractFn(html, item)
}

var _ doccache.Notifier = (*Notifier)(nil)

// Notifier is a mock implementation of doccache.Notifier.
type Notifier struct {
	NotifyFn func(ctx context.Context, item doccache.DocItem) error
}

func (n *Notifier) Notify(ctx context.Context, item doccache.DocItem) error {
	return n.NotifyFn(ctx, item)
}
