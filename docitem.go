package doccache

import "strings"

// DocItem identifies one documentation symbol from a loaded inventory.
// It is a comparable value type: two DocItems are equal iff all five
// fields are equal.
type DocItem struct {
	// Package is the name of the package the symbol belongs to.
	Package string

	// Group is the intersphinx role of the symbol, e.g. "class" or
	// "label", with the domain prefix already stripped.
	Group string

	// BaseURL is the documentation root shared by every item from the
	// same package. Always ends with a slash.
	BaseURL string

	// RelativePath locates the page containing the symbol, relative to
	// BaseURL.
	RelativePath string

	// SymbolID is the in-page fragment identifying the symbol.
	SymbolID string
}

// URL returns the absolute URL of the page the symbol lives on.
func (d DocItem) URL() string {
	return d.BaseURL + d.RelativePath
}

// PageKey returns the cache grouping key for the symbol's page. All
// symbols from a single page share one key and one cache TTL.
func (d DocItem) PageKey() string {
	return d.Package + ":" + strings.TrimSuffix(d.RelativePath, ".html")
}

// InventoryEntry is a single record from a parsed inventory: a symbol
// name and the location ("relative/path.html#fragment") it resolves to.
type InventoryEntry struct {
	Name     string
	Location string
}

// Inventory maps a full intersphinx directive (e.g. "py:class") to the
// entries registered under it.
type Inventory map[string][]InventoryEntry

// Count returns the total number of entries across all groups.
func (inv Inventory) Count() int {
	n := 0
	for _, entries := range inv {
		n += len(entries)
	}
	return n
}
