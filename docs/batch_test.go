package docs_test

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AbstractUmbra/doccache"
	"github.com/AbstractUmbra/doccache/docs"
	"github.com/AbstractUmbra/doccache/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func docItem(path, symbolID string) doccache.DocItem {
	return doccache.DocItem{
		Package:      "aiohttp",
		Group:        "class",
		BaseURL:      "https://docs.aiohttp.org/en/stable/",
		RelativePath: path,
		SymbolID:     symbolID,
	}
}

// memoryCache is a minimal in-memory SymbolCache for queue tests.
func memoryCache() (*mock.SymbolCache, *sync.Map) {
	var store sync.Map
	cache := &mock.SymbolCache{
		GetFn: func(_ context.Context, item doccache.DocItem) (string, error) {
			if v, ok := store.Load(item); ok {
				return v.(string), nil
			}
			return "", doccache.Errorf(doccache.ENOTFOUND, "symbol not cached")
		},
		SetFn: func(_ context.Context, item doccache.DocItem, markdown string) error {
			store.Store(item, markdown)
			return nil
		},
	}
	return cache, &store
}

func TestQueue_GetMarkdown(t *testing.T) {
	t.Run("one fetch serves every symbol on the page", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		var fetches atomic.Int64
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				fetches.Add(1)
				return "<html>page</html>", nil
			},
		}
		extractor := &mock.SymbolExtractor{
			ExtractFn: func(_ string, item doccache.DocItem) (string, error) {
				return "docs for " + item.SymbolID, nil
			},
		}
		cache, store := memoryCache()

		q := docs.NewQueue(fetcher, extractor, cache, nil, discardLogger())
		a := docItem("client.html", "aiohttp.ClientSession")
		b := docItem("client.html", "aiohttp.ClientResponse")
		q.AddItem(a)
		q.AddItem(b)

		ctx := context.Background()
		got, err := q.GetMarkdown(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, "docs for aiohttp.ClientSession", got)

		got, err = q.GetMarkdown(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "docs for aiohttp.ClientResponse", got)

		assert.Equal(t, int64(1), fetches.Load())

		// Both results were persisted, not just the requested one.
		require.NoError(t, q.Clear(ctx))
		_, ok := store.Load(a)
		assert.True(t, ok)
		_, ok = store.Load(b)
		assert.True(t, ok)
	})

	t.Run("fetch failure surfaces to the caller", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "", doccache.Errorf(doccache.EUNAVAILABLE, "received 404 from %s", url)
			},
		}
		cache, _ := memoryCache()
		q := docs.NewQueue(fetcher, &mock.SymbolExtractor{}, cache, nil, discardLogger())

		item := docItem("gone.html", "aiohttp.Gone")
		q.AddItem(item)

		_, err := q.GetMarkdown(context.Background(), item)
		assert.Equal(t, doccache.EUNAVAILABLE, doccache.ErrorCode(err))
	})

	t.Run("duplicate queue entries parse once", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		var extracts atomic.Int64
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<html>page</html>", nil
			},
		}
		extractor := &mock.SymbolExtractor{
			ExtractFn: func(_ string, item doccache.DocItem) (string, error) {
				extracts.Add(1)
				return "docs", nil
			},
		}
		cache, _ := memoryCache()

		q := docs.NewQueue(fetcher, extractor, cache, nil, discardLogger())
		item := docItem("client.html", "aiohttp.ClientSession")
		// Equal DocItems appear twice when two inventory names map to
		// the same location.
		q.AddItem(item)
		q.AddItem(item)

		_, err := q.GetMarkdown(context.Background(), item)
		require.NoError(t, err)
		require.NoError(t, q.Clear(context.Background()))

		assert.Equal(t, int64(1), extracts.Load())
	})

	t.Run("vanished symbol warns about staleness", func(t *testing.T) {
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<html>page</html>", nil
			},
		}
		extractor := &mock.SymbolExtractor{
			ExtractFn: func(_ string, _ doccache.DocItem) (string, error) {
				return "", nil
			},
		}
		incremented := make(chan doccache.DocItem, 1)
		counter := &mock.StaleCounter{
			IncrementFn: func(_ context.Context, item doccache.DocItem) (int64, error) {
				incremented <- item
				return 1, nil
			},
		}
		cache, _ := memoryCache()
		stale := docs.NewStaleNotifier(counter, nil, discardLogger())

		q := docs.NewQueue(fetcher, extractor, cache, stale, discardLogger())
		item := docItem("client.html", "aiohttp.Removed")
		q.AddItem(item)

		got, err := q.GetMarkdown(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, "", got)

		select {
		case warned := <-incremented:
			assert.Equal(t, item, warned)
		case <-time.After(time.Second):
			t.Fatal("stale counter was never incremented")
		}
	})

	t.Run("caller context cancellation unblocks the wait", func(t *testing.T) {
		release := make(chan struct{})
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<html>page</html>", nil
			},
		}
		extractor := &mock.SymbolExtractor{
			ExtractFn: func(_ string, _ doccache.DocItem) (string, error) {
				<-release
				return "docs", nil
			},
		}
		cache, _ := memoryCache()

		q := docs.NewQueue(fetcher, extractor, cache, nil, discardLogger())
		item := docItem("client.html", "aiohttp.ClientSession")
		q.AddItem(item)

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			_, err := q.GetMarkdown(ctx, item)
			errc <- err
		}()

		cancel()
		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("GetMarkdown did not observe cancellation")
		}
		close(release)
		require.NoError(t, q.Clear(context.Background()))
	})
}

func TestQueue_Clear(t *testing.T) {
	t.Run("waits for in-flight user requests", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<html>page</html>", nil
			},
		}
		extractor := &mock.SymbolExtractor{
			ExtractFn: func(_ string, _ doccache.DocItem) (string, error) {
				close(entered)
				<-release
				return "docs", nil
			},
		}
		cache, _ := memoryCache()

		q := docs.NewQueue(fetcher, extractor, cache, nil, discardLogger())
		item := docItem("client.html", "aiohttp.ClientSession")
		q.AddItem(item)

		got := make(chan string, 1)
		go func() {
			markdown, _ := q.GetMarkdown(context.Background(), item)
			got <- markdown
		}()

		// Wait for the drain goroutine to be blocked inside Extract,
		// then start clearing.
		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Fatal("drain never reached the extractor")
		}

		cleared := make(chan struct{})
		go func() {
			_ = q.Clear(context.Background())
			close(cleared)
		}()

		select {
		case <-cleared:
			t.Fatal("Clear returned while a user request was in flight")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		select {
		case <-cleared:
		case <-time.After(time.Second):
			t.Fatal("Clear never returned")
		}
		assert.Equal(t, "docs", <-got)
	})

	t.Run("honors the context deadline", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		defer close(release)

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<html>page</html>", nil
			},
		}
		extractor := &mock.SymbolExtractor{
			ExtractFn: func(_ string, _ doccache.DocItem) (string, error) {
				close(entered)
				<-release
				return "docs", nil
			},
		}
		cache, _ := memoryCache()

		q := docs.NewQueue(fetcher, extractor, cache, nil, discardLogger())
		item := docItem("client.html", "aiohttp.ClientSession")
		q.AddItem(item)

		go func() {
			_, _ = q.GetMarkdown(context.Background(), item)
		}()
		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Fatal("drain never reached the extractor")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := q.Clear(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
