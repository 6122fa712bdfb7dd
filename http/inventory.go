package http

import (
	"bufio"
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/AbstractUmbra/doccache"
	"github.com/klauspost/compress/zlib"
)

// inventoryLineRE matches one record of a decompressed v2 inventory:
// "name directive priority location display".
var inventoryLineRE = regexp.MustCompile(`^(.+?)\s+(\S*:\S*)\s+(-?\d+)\s+(\S*)\s+(.*)$`)

// Ensure InventoryService implements doccache.InventoryService at compile time.
var _ doccache.InventoryService = (*InventoryService)(nil)

// InventoryService fetches and parses Sphinx objects.inv files.
type InventoryService struct {
	client      *http.Client
	userAgent   string
	retryDelays []time.Duration
}

// InventoryOption configures an InventoryService.
type InventoryOption func(*InventoryService)

// WithInventoryRetryDelays overrides the delays between failed fetch
// attempts. The number of attempts is len(delays)+1. Useful for tests.
func WithInventoryRetryDelays(delays []time.Duration) InventoryOption {
	return func(s *InventoryService) {
		s.retryDelays = delays
	}
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(opts ...InventoryOption) *InventoryService {
	s := &InventoryService{
		client:      &http.Client{Timeout: DefaultFetchTimeout},
		userAgent:   defaultUserAgent,
		retryDelays: []time.Duration{time.Second, 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchInventory retrieves and parses the objects.inv file at url.
//
// A malformed header returns EINVALID without retrying: the request
// went through, the content itself is broken. Transport failures are
// retried with the configured delays and surface as EUNAVAILABLE.
func (s *InventoryService) FetchInventory(ctx context.Context, url string) (doccache.Inventory, error) {
	maxAttempts := len(s.retryDelays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		inv, err := s.fetchOnce(ctx, url)
		if err == nil {
			return inv, nil
		}
		if doccache.ErrorCode(err) == doccache.EINVALID {
			return nil, err
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelays[attempt]):
		}
	}

	return nil, doccache.Errorf(doccache.EUNAVAILABLE,
		"failed to fetch inventory from %s after %d attempts: %v", url, maxAttempts, doccache.ErrorMessage(lastErr))
}

func (s *InventoryService) fetchOnce(ctx context.Context, url string) (doccache.Inventory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, doccache.Errorf(doccache.EUNAVAILABLE, "failed to fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, doccache.Errorf(doccache.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	return parseInventory(bufio.NewReader(resp.Body))
}

// parseInventory parses a v2 intersphinx inventory: a four line plain
// text header followed by a zlib-compressed stream of records.
func parseInventory(r *bufio.Reader) (doccache.Inventory, error) {
	header, err := readHeaderLine(r)
	if err != nil {
		return nil, err
	}
	if header != "# Sphinx inventory version 2" {
		return nil, doccache.Errorf(doccache.EINVALID, "unsupported inventory version header %q", header)
	}

	if line, err := readHeaderLine(r); err != nil {
		return nil, err
	} else if !strings.HasPrefix(line, "# Project") {
		return nil, doccache.Errorf(doccache.EINVALID, "inventory missing project header")
	}

	if line, err := readHeaderLine(r); err != nil {
		return nil, err
	} else if !strings.HasPrefix(line, "# Version") {
		return nil, doccache.Errorf(doccache.EINVALID, "inventory missing version header")
	}

	if line, err := readHeaderLine(r); err != nil {
		return nil, err
	} else if !strings.Contains(line, "zlib") {
		return nil, doccache.Errorf(doccache.EINVALID, "'zlib' not found in header of compressed inventory")
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, doccache.Errorf(doccache.EINVALID, "failed to decompress inventory: %v", err)
	}
	defer zr.Close()

	inv := make(doccache.Inventory)
	seenModules := make(map[string]bool)

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := inventoryLineRE.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if m == nil {
			continue
		}
		name, directive, location := m[1], m[2], m[4]

		// Upstream inventories list some modules twice; keep the first
		// occurrence, matching intersphinx behaviour.
		if directive == "py:module" {
			if seenModules[name] {
				continue
			}
			seenModules[name] = true
		}

		// Sphinx documents pages as std:doc; treat them as labels.
		if directive == "std:doc" {
			directive = "std:label"
		}

		// A trailing $ means the fragment slug equals the symbol name.
		if strings.HasSuffix(location, "$") {
			location = location[:len(location)-1] + name
		}

		inv[directive] = append(inv[directive], doccache.InventoryEntry{Name: name, Location: location})
	}
	if err := scanner.Err(); err != nil {
		return nil, doccache.Errorf(doccache.EINVALID, "failed to read inventory stream: %v", err)
	}

	return inv, nil
}

func readHeaderLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", doccache.Errorf(doccache.EINVALID, "truncated inventory header")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
