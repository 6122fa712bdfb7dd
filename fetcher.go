package doccache

import "context"

// Fetcher retrieves raw HTML from documentation pages.
type Fetcher interface {
	// Fetch performs a GET request against the URL and returns the
	// response body. The context controls timeout and cancellation.
	// Returns EUNAVAILABLE for transport failures and non-200 statuses.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// InventoryService downloads and parses intersphinx inventory files.
type InventoryService interface {
	// FetchInventory retrieves the objects.inv file at url and parses
	// it into an Inventory.
	// Returns EINVALID if the inventory header does not match the
	// expected wire format; retrying such an inventory is pointless.
	// Returns EUNAVAILABLE if the file could not be fetched after the
	// service's own retry policy.
	FetchInventory(ctx context.Context, url string) (Inventory, error)
}
