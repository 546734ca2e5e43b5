package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
)

const (
	syncPageSize = 50
	syncMaxPages = 200
)

// Sync copies every backend book into the index and the cache.
func (c *Catalog) Sync(ctx context.Context) (int, error) {
	if c.index == nil {
		return 0, nil
	}
	indexed := 0
	for books, err := range c.backend.IterateBooks(ctx, api.IterateOptions{PageSize: syncPageSize, MaxPages: syncMaxPages}) {
		if err != nil {
			return indexed, fmt.Errorf("list books: %w", err)
		}
		c.Remember(books...)
		n, err := c.index.BulkIndex(ctx, books)
		indexed += n
		if err != nil {
			return indexed, fmt.Errorf("index books: %w", err)
		}
	}
	return indexed, nil
}

// TriggerSync asks the running sync loop for an early pass. It never blocks.
func (c *Catalog) TriggerSync() {
	select {
	case c.resync <- struct{}{}:
	default:
	}
}

// Run syncs at start, then every interval and on TriggerSync, until ctx ends.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) error {
	if c.index == nil {
		<-ctx.Done()
		return nil
	}
	l := logging.FromContext(ctx).With("component", "catalog.sync")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		n, err := c.Sync(ctx)
		if err != nil && ctx.Err() == nil {
			l.Warn("catalog_sync_failed", "indexed", n, "error", err)
		} else if err == nil {
			l.Info("catalog_synced", "indexed", n, "duration_ms", time.Since(start).Milliseconds())
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-c.resync:
		}
	}
}
