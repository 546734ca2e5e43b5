package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/booknook/storefront/internal/api"
	"github.com/elastic/go-elasticsearch/v9"
)

var ErrSearch = errors.New("search failed")

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "author":      {"type": "text"},
      "description": {"type": "text"},
      "genre":       {"type": "keyword"},
      "price":       {"type": "double"},
      "stock":       {"type": "integer"},
      "image_url":   {"type": "keyword", "index": false},
      "page_count":  {"type": "integer"}
    }
  }
}`

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	return &Index{ES: es, Name: name}
}

// Ensure creates the index with its mapping when it does not exist yet.
func (ix *Index) Ensure(ctx context.Context) error {
	res, err := ix.ES.Indices.Exists([]string{ix.Name}, ix.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: index exists: %w", ErrSearch, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: index exists: %s", ErrSearch, res.Status())
	}

	res, err = ix.ES.Indices.Create(ix.Name,
		ix.ES.Indices.Create.WithContext(ctx),
		ix.ES.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("%w: create index: %w", ErrSearch, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: create index: %s: %s", ErrSearch, res.Status(), body)
	}
	return nil
}

func (ix *Index) Search(ctx context.Context, query string, page, size int) (int64, []api.Book, error) {
	from, size := Calculate(page, size)
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "author", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("%w: encode query: %w", ErrSearch, err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("%w: %s", ErrSearch, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source api.Book `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("%w: decode: %w", ErrSearch, err)
	}

	books := make([]api.Book, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		books[i] = hit.Source
	}
	return r.Hits.Total.Value, books, nil
}

// BulkIndex upserts books by id and returns how many were accepted.
func (ix *Index) BulkIndex(ctx context.Context, books []api.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, b := range books {
		if b.ID.IsZero() {
			continue
		}
		meta := map[string]any{"index": map[string]any{"_index": ix.Name, "_id": b.ID.String()}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("%w: encode bulk: %w", ErrSearch, err)
		}
		if err := enc.Encode(b); err != nil {
			return 0, fmt.Errorf("%w: encode bulk: %w", ErrSearch, err)
		}
	}
	if buf.Len() == 0 {
		return 0, nil
	}

	res, err := ix.ES.Bulk(bytes.NewReader(buf.Bytes()),
		ix.ES.Bulk.WithContext(ctx),
		ix.ES.Bulk.WithIndex(ix.Name),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: bulk: %w", ErrSearch, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("%w: bulk: %s", ErrSearch, res.Status())
	}

	var r struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("%w: decode bulk: %w", ErrSearch, err)
	}

	ok := 0
	for _, item := range r.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				ok++
			}
		}
	}
	if r.Errors {
		return ok, fmt.Errorf("%w: bulk: %d of %d documents rejected", ErrSearch, len(r.Items)-ok, len(r.Items))
	}
	return ok, nil
}

func (ix *Index) Delete(ctx context.Context, id string) error {
	res, err := ix.ES.Delete(ix.Name, id, ix.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: delete: %w", ErrSearch, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: delete: %s", ErrSearch, res.Status())
	}
	return nil
}
