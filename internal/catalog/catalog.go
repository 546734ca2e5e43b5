package catalog

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
)

type Backend interface {
	Books(ctx context.Context, page, limit int) (api.BooksPage, error)
	SearchBooks(ctx context.Context, query string, page, limit int) (api.BooksPage, error)
	Book(ctx context.Context, id string) (*api.Book, error)
	IterateBooks(ctx context.Context, opt api.IterateOptions) iter.Seq2[[]api.Book, error]
}

// Searcher is the full-text index. A nil Searcher sends every query to the backend.
type Searcher interface {
	Search(ctx context.Context, query string, page, size int) (int64, []api.Book, error)
	BulkIndex(ctx context.Context, books []api.Book) (int, error)
	Delete(ctx context.Context, id string) error
}

type Catalog struct {
	backend Backend
	index   Searcher

	mu    sync.RWMutex
	cache map[string]api.Book

	resync chan struct{}
}

func New(backend Backend, index Searcher) *Catalog {
	return &Catalog{
		backend: backend,
		index:   index,
		cache:   make(map[string]api.Book),
		resync:  make(chan struct{}, 1),
	}
}

func (c *Catalog) Remember(books ...api.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range books {
		if !b.ID.IsZero() {
			c.cache[b.ID.String()] = b
		}
	}
}

func (c *Catalog) Forget(id string) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}

// Remove drops a deleted book from the cache and the search index. Sync only
// upserts, so the index would otherwise keep serving it.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.Forget(id)
	if c.index == nil {
		return nil
	}
	return c.index.Delete(ctx, id)
}

func (c *Catalog) Cached(id string) (api.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.cache[id]
	return b, ok
}

func (c *Catalog) List(ctx context.Context, page, limit int) (api.BooksPage, error) {
	p, err := c.backend.Books(ctx, page, limit)
	if err != nil {
		return api.BooksPage{}, err
	}
	c.Remember(p.Books...)
	return p, nil
}

// Search answers from the index when one is configured and healthy, falling
// back to the backend search endpoint. An empty query lists the catalog.
func (c *Catalog) Search(ctx context.Context, query string, page, limit int) (api.BooksPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.List(ctx, page, limit)
	}

	if c.index != nil {
		total, books, err := c.index.Search(ctx, query, page, limit)
		if err == nil {
			c.Remember(books...)
			return api.BooksPage{Books: books, Page: max(page, 1), Total: int(total)}, nil
		}
		logging.FromContext(ctx).Warn("catalog_index_search_failed", "query", query, "error", err)
	}

	p, err := c.backend.SearchBooks(ctx, query, page, limit)
	if err != nil {
		return api.BooksPage{}, err
	}
	c.Remember(p.Books...)
	return p, nil
}

func (c *Catalog) Book(ctx context.Context, id string) (api.Book, error) {
	if b, ok := c.Cached(id); ok {
		return b, nil
	}
	b, err := c.backend.Book(ctx, id)
	if err != nil {
		return api.Book{}, err
	}
	c.Remember(*b)
	return *b, nil
}

// Refresh bypasses the cache, used after a mutation.
func (c *Catalog) Refresh(ctx context.Context, id string) (api.Book, error) {
	c.Forget(id)
	return c.Book(ctx, id)
}

// Lookup resolves ids for pricing. Books that cannot be fetched are left out
// and priced as unknown items.
func (c *Catalog) Lookup(ctx context.Context, ids []string) map[string]api.Book {
	out := make(map[string]api.Book, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		b, err := c.Book(ctx, id)
		if err != nil {
			if !api.IsNotFound(err) && !errors.Is(err, context.Canceled) {
				logging.FromContext(ctx).Warn("catalog_lookup_failed", "book_id", id, "error", err)
			}
			continue
		}
		out[id] = b
	}
	return out
}
