package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AbstractUmbra/doccache"
	dochttp "github.com/AbstractUmbra/doccache/http"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildInventory assembles a v2 objects.inv payload: a plain text
// header followed by zlib-compressed records.
func buildInventory(t *testing.T, header string, records ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString(header)

	zw := zlib.NewWriter(&buf)
	for _, record := range records {
		_, err := zw.Write([]byte(record + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

const validHeader = "# Sphinx inventory version 2\n# Project: testproj\n# Version: 1.0\n# The remainder of this file is compressed using zlib.\n"

func serveInventory(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInventoryService_FetchInventory(t *testing.T) {
	t.Parallel()

	t.Run("parses records into groups", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t, validHeader,
			"aiohttp.ClientSession py:class 1 client_reference.html#$ -",
			"aiohttp.ClientSession.get py:method 1 client_reference.html#aiohttp.ClientSession.get -",
			"client-quickstart std:label -1 client_quickstart.html#$ Client Quickstart",
		)
		server := serveInventory(t, payload)

		svc := dochttp.NewInventoryService()
		inv, err := svc.FetchInventory(context.Background(), server.URL)
		require.NoError(t, err)

		require.Len(t, inv["py:class"], 1)
		assert.Equal(t, "aiohttp.ClientSession", inv["py:class"][0].Name)
		// Trailing $ expands to the symbol name.
		assert.Equal(t, "client_reference.html#aiohttp.ClientSession", inv["py:class"][0].Location)

		require.Len(t, inv["py:method"], 1)
		require.Len(t, inv["std:label"], 1)
		assert.Equal(t, "client_quickstart.html#client-quickstart", inv["std:label"][0].Location)
	})

	t.Run("suppresses duplicate py:module records", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t, validHeader,
			"aiohttp py:module 0 index.html#module-aiohttp -",
			"aiohttp py:module 0 other.html#module-aiohttp -",
		)
		server := serveInventory(t, payload)

		svc := dochttp.NewInventoryService()
		inv, err := svc.FetchInventory(context.Background(), server.URL)
		require.NoError(t, err)

		require.Len(t, inv["py:module"], 1)
		assert.Equal(t, "index.html#module-aiohttp", inv["py:module"][0].Location)
	})

	t.Run("normalizes std:doc to std:label", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t, validHeader,
			"quickstart std:doc -1 quickstart.html Quickstart Guide",
		)
		server := serveInventory(t, payload)

		svc := dochttp.NewInventoryService()
		inv, err := svc.FetchInventory(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Empty(t, inv["std:doc"])
		require.Len(t, inv["std:label"], 1)
		assert.Equal(t, "quickstart", inv["std:label"][0].Name)
	})

	t.Run("names containing spaces survive parsing", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t, validHeader,
			"The Zen of Python std:label -1 glossary.html#the-zen-of-python -",
		)
		server := serveInventory(t, payload)

		svc := dochttp.NewInventoryService()
		inv, err := svc.FetchInventory(context.Background(), server.URL)
		require.NoError(t, err)

		require.Len(t, inv["std:label"], 1)
		assert.Equal(t, "The Zen of Python", inv["std:label"][0].Name)
	})

	t.Run("returns EINVALID for wrong version header", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t,
			"# Sphinx inventory version 1\n# Project: testproj\n# Version: 1.0\n# compressed using zlib\n")
		server := serveInventory(t, payload)

		svc := dochttp.NewInventoryService()
		_, err := svc.FetchInventory(context.Background(), server.URL)
		assert.Equal(t, doccache.EINVALID, doccache.ErrorCode(err))
	})

	t.Run("returns EINVALID when zlib marker is missing", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t,
			"# Sphinx inventory version 2\n# Project: testproj\n# Version: 1.0\n# plain text follows\n")
		server := serveInventory(t, payload)

		svc := dochttp.NewInventoryService()
		_, err := svc.FetchInventory(context.Background(), server.URL)
		assert.Equal(t, doccache.EINVALID, doccache.ErrorCode(err))
	})

	t.Run("does not retry on invalid header", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte("# Not an inventory\nnope\nnope\nnope\n"))
		}))
		defer server.Close()

		svc := dochttp.NewInventoryService(
			dochttp.WithInventoryRetryDelays([]time.Duration{time.Millisecond, time.Millisecond}),
		)
		_, err := svc.FetchInventory(context.Background(), server.URL)
		assert.Equal(t, doccache.EINVALID, doccache.ErrorCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries transport failures then returns EUNAVAILABLE", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		svc := dochttp.NewInventoryService(
			dochttp.WithInventoryRetryDelays([]time.Duration{time.Millisecond, time.Millisecond}),
		)
		_, err := svc.FetchInventory(context.Background(), server.URL)
		assert.Equal(t, doccache.EUNAVAILABLE, doccache.ErrorCode(err))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("recovers when a retry succeeds", func(t *testing.T) {
		t.Parallel()

		payload := buildInventory(t, validHeader,
			"aiohttp.ClientSession py:class 1 client_reference.html#$ -",
		)

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		svc := dochttp.NewInventoryService(
			dochttp.WithInventoryRetryDelays([]time.Duration{time.Millisecond}),
		)
		inv, err := svc.FetchInventory(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, 1, inv.Count())
	})
}
