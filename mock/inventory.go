package mock

import (
	"context"

	"github.com/AbstractUmbra/doccache"
)

var _ doccache.InventoryService = (*InventoryService)(nil)

// InventoryService is a mock implementation of doccache.InventoryService.
type InventoryService struct {
	FetchInventoryFn func(ctx context.Context, url string) (doccache.Inventory, error)
}

func (s *InventoryService) FetchInventory(ctx context.Context, url string) (doccache.Inventory, error) {
	return s.FetchInventoryFn(ctx, url)
}
