package docs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AbstractUmbra/doccache"
	"golang.org/x/time/rate"
)

// parseInterval bounds the CPU burst from HTML parsing: the drain loop
// handles at most one item per interval.
const parseInterval = 100 * time.Millisecond

// pendingResult is a single-assignment future for one DocItem's
// rendered markdown. userRequested marks futures a live lookup is
// waiting on; Clear awaits those and drops the rest.
type pendingResult struct {
	done          chan struct{}
	markdown      string
	err           error
	userRequested bool // guarded by the queue mutex
}

func newPendingResult() *pendingResult {
	return &pendingResult{done: make(chan struct{})}
}

// resolve completes the future. Resolving twice is a programming error.
func (p *pendingResult) resolve(markdown string, err error) {
	p.markdown = markdown
	p.err = err
	close(p.done)
}

func (p *pendingResult) resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// queueItem pairs a DocItem with the already-downloaded HTML of its
// page. It lives only inside the queue and is dropped once parsed.
type queueItem struct {
	item doccache.DocItem
	html string
}

// Queue fetches a documentation page once and schedules parsing of
// every known symbol on that page, not just the one requested.
//
// DocItems are associated with their page up front through AddItem.
// The first GetMarkdown touching a page downloads its HTML and queues
// all of the page's items; a background drain loop parses them one at
// a time and persists results to the symbol cache.
type Queue struct {
	fetcher   doccache.Fetcher
	extractor doccache.SymbolExtractor
	cache     doccache.SymbolCache
	stale     *StaleNotifier
	logger    *slog.Logger
	limiter   *rate.Limiter

	mu      sync.Mutex
	items   []queueItem // drained from the end: most recently queued page first
	pages   map[string][]doccache.DocItem
	futures map[doccache.DocItem]*pendingResult
	running bool
}

// NewQueue creates a Queue. The stale notifier may be nil, in which
// case vanished symbols are only logged.
func NewQueue(fetcher doccache.Fetcher, extractor doccache.SymbolExtractor, cache doccache.SymbolCache, stale *StaleNotifier, logger *slog.Logger) *Queue {
	return &Queue{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		stale:     stale,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(parseInterval), 1),
		pages:     make(map[string][]doccache.DocItem),
		futures:   make(map[doccache.DocItem]*pendingResult),
	}
}

// AddItem maps a DocItem to its page so that the symbol is parsed once
// the page is first requested.
func (q *Queue) AddItem(item doccache.DocItem) {
	q.mu.Lock()
	q.pages[item.URL()] = append(q.pages[item.URL()], item)
	q.mu.Unlock()
}

// GetMarkdown returns the rendered markdown for item.
//
// On the first request touching item's page the page HTML is fetched
// once and every DocItem registered against that URL is queued. Repeat
// requests for a queued item move it to the front of the queue.
// Returns EUNAVAILABLE if the page itself could not be fetched.
func (q *Queue) GetMarkdown(ctx context.Context, item doccache.DocItem) (string, error) {
	q.mu.Lock()
	fut, ok := q.futures[item]
	if !ok {
		fut = newPendingResult()
		fut.userRequested = true
		q.futures[item] = fut
		q.mu.Unlock()

		html, err := q.fetcher.Fetch(ctx, item.URL())
		if err != nil {
			// Resolve rather than just delete: a concurrent caller may
			// already hold this future.
			fut.resolve("", err)
			q.mu.Lock()
			delete(q.futures, item)
			q.mu.Unlock()
			return "", err
		}

		q.mu.Lock()
		q.enqueuePageLocked(item.URL(), html)
		q.logger.Debug("queued page items for parsing", "url", item.URL())
	}

	fut.userRequested = true
	q.moveToFrontLocked(item)
	if !q.running && len(q.items) > 0 {
		q.running = true
		go q.drain()
	}
	q.mu.Unlock()

	select {
	case <-fut.done:
		return fut.markdown, fut.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// enqueuePageLocked queues every DocItem registered against url,
// creating futures for items that don't have one yet. The page batch
// lands at the drain end so the most recently touched page parses
// first.
func (q *Queue) enqueuePageLocked(url, html string) {
	for _, it := range q.pages[url] {
		if _, ok := q.futures[it]; !ok {
			q.futures[it] = newPendingResult()
		}
		q.items = append(q.items, queueItem{item: it, html: html})
	}
}

// moveToFrontLocked moves a queued item to the drain end of the queue.
// A linear scan is fine here: queue sizes are bounded by per-page
// symbol counts.
func (q *Queue) moveToFrontLocked(item doccache.DocItem) {
	for i, qi := range q.items {
		if qi.item == item {
			q.items = append(append(q.items[:i], q.items[i+1:]...), qi)
			return
		}
	}
}

// drain parses queued items until the queue empties, resolving futures
// and persisting results. It runs as a single background goroutine;
// the running flag prevents a second one from starting.
func (q *Queue) drain() {
	q.logger.Debug("starting queue parsing")
	ctx := context.Background()

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.running = false
			q.mu.Unlock()
			q.logger.Debug("finished parsing queue")
			return
		}
		qi := q.items[len(q.items)-1]
		q.items = q.items[:len(q.items)-1]
		fut, ok := q.futures[qi.item]
		q.mu.Unlock()

		// Duplicate symbol names map to equal DocItems; once one copy
		// is parsed its future is gone and the rest can be skipped.
		if !ok || fut.resolved() {
			continue
		}

		markdown, err := q.extractor.Extract(qi.html, qi.item)
		switch {
		case err != nil:
			q.logger.Error("unexpected error while parsing symbol",
				"url", qi.item.URL(), "symbol", qi.item.SymbolID, "err", err)
		case markdown != "":
			if err := q.cache.Set(ctx, qi.item, markdown); err != nil {
				q.logger.Error("failed to cache symbol markdown",
					"url", qi.item.URL(), "symbol", qi.item.SymbolID, "err", err)
			}
		default:
			// The symbol vanished from its page. Parsing doesn't depend
			// on the notification, so don't wait for it.
			if q.stale != nil {
				go q.stale.Warn(ctx, qi.item)
			}
		}

		fut.resolve(markdown, err)
		q.mu.Lock()
		delete(q.futures, qi.item)
		q.mu.Unlock()

		_ = q.limiter.Wait(ctx)
	}
}

// Clear waits for every user-requested pending future and then discards
// all internal state, so no caller observes an in-flight lookup vanish
// during a refresh. Futures nobody is waiting on are simply dropped.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	var awaited []*pendingResult
	for _, fut := range q.futures {
		if fut.userRequested {
			awaited = append(awaited, fut)
		}
	}
	q.mu.Unlock()

	for _, fut := range awaited {
		select {
		case <-fut.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	q.mu.Lock()
	q.items = nil
	q.pages = make(map[string][]doccache.DocItem)
	q.futures = make(map[doccache.DocItem]*pendingResult)
	q.mu.Unlock()
	return nil
}
