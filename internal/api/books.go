package api

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.Do(ctx, http.MethodGet, "/health", &h, WithCallTimeout(healthTimeout))
	if err != nil {
		if c.offline(err) {
			return fallbackHealth(), nil
		}
		return Health{}, err
	}
	return h, nil
}

func (c *Client) Books(ctx context.Context, page, limit int) (BooksPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/books?"+q.Encode(), &raw); err != nil {
		if c.offline(err) {
			return fallbackCatalog(), nil
		}
		return BooksPage{}, err
	}
	return decodePage(raw)
}

func (c *Client) SearchBooks(ctx context.Context, query string, page, limit int) (BooksPage, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/books/search?"+q.Encode(), &raw); err != nil {
		if c.offline(err) {
			return fallbackSearch(query), nil
		}
		return BooksPage{}, err
	}
	return decodePage(raw)
}

func (c *Client) Book(ctx context.Context, id string) (*Book, error) {
	var b Book
	if err := c.Do(ctx, http.MethodGet, "/books/"+url.PathEscape(id), &b); err != nil {
		if c.offline(err) {
			return fallbackBook(id)
		}
		return nil, err
	}
	return &b, nil
}

func decodePage(raw []byte) (BooksPage, error) {
	p, err := decodeBooksPage(raw)
	if err != nil {
		return BooksPage{}, &Error{Message: "decode books", Err: fmt.Errorf("decode books: %w", err)}
	}
	return p, nil
}

type IterateOptions struct {
	PageStart int
	PageSize  int
	MaxPages  int
	Query     string
}

// IterateBooks walks the catalog (or a search) page by page. It stops on an
// empty page, a short page, MaxPages, an error, or when the consumer stops.
func (c *Client) IterateBooks(ctx context.Context, opt IterateOptions) iter.Seq2[[]Book, error] {
	if opt.PageStart < 1 {
		opt.PageStart = 1
	}
	if opt.PageSize <= 0 {
		opt.PageSize = 50
	}
	if opt.MaxPages <= 0 {
		opt.MaxPages = 10
	}
	return func(yield func([]Book, error) bool) {
		page := opt.PageStart
		for range opt.MaxPages {
			var (
				bp  BooksPage
				err error
			)
			if opt.Query != "" {
				bp, err = c.SearchBooks(ctx, opt.Query, page, opt.PageSize)
			} else {
				bp, err = c.Books(ctx, page, opt.PageSize)
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if len(bp.Books) == 0 {
				return
			}
			if !yield(bp.Books, nil) {
				return
			}
			page++
			if len(bp.Books) < opt.PageSize {
				return
			}
		}
	}
}

func (c *Client) Reviews(ctx context.Context, bookID string) ([]Review, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/reviews", &raw); err != nil {
		return nil, err
	}
	return listOf[Review](raw, "reviews")
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (c *Client) AddReview(ctx context.Context, token, bookID string, in ReviewInput) (*Review, error) {
	var raw json.RawMessage
	err := c.Do(ctx, http.MethodPost, "/books/"+url.PathEscape(bookID)+"/reviews", &raw, WithToken(token), WithBody(in))
	if err != nil {
		return nil, err
	}
	var env struct {
		Review *Review `json:"review"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Review != nil {
		return env.Review, nil
	}
	var r Review
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &r)
	}
	return &r, nil
}

func (c *Client) ReadingAccess(ctx context.Context, token, bookID string) (*ReadingAccess, error) {
	var ra ReadingAccess
	if err := c.Do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/read-access", &ra, WithToken(token)); err != nil {
		return nil, err
	}
	return &ra, nil
}

// ContentPath is the backend path streaming a book's readable content.
func ContentPath(bookID string) string {
	return "/books/" + url.PathEscape(bookID) + "/content"
}
