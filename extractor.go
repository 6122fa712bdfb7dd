package doccache

import "context"

// SymbolExtractor renders the documentation for a single symbol out of
// its page's HTML.
type SymbolExtractor interface {
	// Extract locates item's fragment in the page HTML and returns its
	// documentation as markdown. Returns an empty string with a nil
	// error when the symbol is no longer present on the page.
	Extract(html string, item DocItem) (string, error)
}

// Converter transforms HTML fragments into markdown.
type Converter interface {
	// Convert renders HTML into markdown, resolving relative links
	// against pageURL.
	Convert(html string, pageURL string) (string, error)
}

// Notifier reports symbols that are present in a loaded inventory but
// missing from their source page, so inventories can be refreshed.
type Notifier interface {
	Notify(ctx context.Context, item DocItem) error
}
