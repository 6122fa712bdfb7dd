package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/AbstractUmbra/doccache"
)

// Ensure LoggingInventoryService implements doccache.InventoryService.
var _ doccache.InventoryService = (*LoggingInventoryService)(nil)

// LoggingInventoryService wraps an InventoryService with fetch logging.
type LoggingInventoryService struct {
	next   doccache.InventoryService
	logger *slog.Logger
}

// NewLoggingInventoryService creates a new LoggingInventoryService.
func NewLoggingInventoryService(next doccache.InventoryService, logger *slog.Logger) *LoggingInventoryService {
	return &LoggingInventoryService{next: next, logger: logger}
}

// FetchInventory delegates to the wrapped service, logging the symbol
// count and duration of the fetch.
func (s *LoggingInventoryService) FetchInventory(ctx context.Context, url string) (doccache.Inventory, error) {
	begin := time.Now()
	inv, err := s.next.FetchInventory(ctx, url)
	if err != nil {
		s.logger.Error("fetch inventory",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}
	s.logger.Info("fetch inventory",
		"url", url,
		"symbols", inv.Count(),
		"duration", time.Since(begin),
	)
	return inv, nil
}
