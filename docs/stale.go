package docs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AbstractUmbra/doccache"
	"github.com/bits-and-blooms/bloom/v3"
)

// Bloom filter sizing for the warned-URL set. A false positive only
// suppresses a warning that would have been sent, which is harmless.
const (
	warnedExpectedURLs      = 10000
	warnedFalsePositiveRate = 0.01
)

// staleWarnLimit caps how many notifications a single symbol can
// trigger before its counter expires.
const staleWarnLimit = 3

// StaleNotifier throttles notifications about symbols that are present
// in a loaded inventory but missing from their source page. A page URL
// is warned about at most once per process, and at most staleWarnLimit
// times per counter lifetime across restarts.
type StaleNotifier struct {
	counter  doccache.StaleCounter
	notifier doccache.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	warned *bloom.BloomFilter
}

// NewStaleNotifier creates a StaleNotifier. The notifier may be nil, in
// which case stale symbols are only counted and logged.
func NewStaleNotifier(counter doccache.StaleCounter, notifier doccache.Notifier, logger *slog.Logger) *StaleNotifier {
	return &StaleNotifier{
		counter:  counter,
		notifier: notifier,
		logger:   logger,
		warned:   bloom.NewWithEstimates(warnedExpectedURLs, warnedFalsePositiveRate),
	}
}

// Warn sends a notification for item unless its page URL was already
// warned about or the symbol's stale counter reached the limit.
func (n *StaleNotifier) Warn(ctx context.Context, item doccache.DocItem) {
	url := item.URL()

	n.mu.Lock()
	seen := n.warned.TestString(url)
	n.mu.Unlock()
	if seen {
		return
	}

	count, err := n.counter.Increment(ctx, item)
	if err != nil {
		n.logger.Error("failed to increment stale counter", "url", url, "err", err)
		return
	}
	if count >= staleWarnLimit {
		return
	}

	n.mu.Lock()
	n.warned.AddString(url)
	n.mu.Unlock()

	n.logger.Warn("inventory symbol not found on page, inventories may need a refresh",
		"url", url, "symbol", item.SymbolID)

	if n.notifier != nil {
		if err := n.notifier.Notify(ctx, item); err != nil {
			n.logger.Error("failed to send stale notification", "url", url, "err", err)
		}
	}
}
