package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) AdminOrders(ctx context.Context, token string) ([]Order, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/admin/orders", &raw, WithToken(token)); err != nil {
		return nil, err
	}
	return listOf[Order](raw, "orders")
}

func (c *Client) AdminUsers(ctx context.Context, token string) ([]User, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/admin/users", &raw, WithToken(token)); err != nil {
		return nil, err
	}
	return listOf[User](raw, "users")
}

// CreateBook returns the new book id, read from {id} or {book: {id}}.
func (c *Client) CreateBook(ctx context.Context, token string, in BookInput) (ID, error) {
	var res struct {
		ID   ID `json:"id"`
		Book *struct {
			ID ID `json:"id"`
		} `json:"book"`
	}
	if err := c.Do(ctx, http.MethodPost, "/admin/books", &res, WithToken(token), WithBody(in)); err != nil {
		return "", err
	}
	if res.ID.IsZero() && res.Book != nil {
		return res.Book.ID, nil
	}
	return res.ID, nil
}

// UpdateBook sends a partial update; only the keys present in fields change.
func (c *Client) UpdateBook(ctx context.Context, token, id string, fields map[string]any) (string, error) {
	return c.ack(ctx, http.MethodPut, "/admin/books/"+url.PathEscape(id), token, fields, "updated")
}

func (c *Client) DeleteBook(ctx context.Context, token, id string) (string, error) {
	return c.ack(ctx, http.MethodDelete, "/admin/books/"+url.PathEscape(id), token, nil, "deleted")
}

// UploadCover returns the stored cover URL.
func (c *Client) UploadCover(ctx context.Context, token, id string, f File) (string, error) {
	f.Field = "cover"
	var res struct {
		CoverURL string `json:"coverUrl"`
		URL      string `json:"url"`
	}
	if err := c.Upload(ctx, "/admin/books/"+url.PathEscape(id)+"/cover", token, nil, []File{f}, &res); err != nil {
		return "", err
	}
	return firstNonEmpty(res.CoverURL, res.URL), nil
}

func (c *Client) UploadContent(ctx context.Context, token, id string, f File, pageCount int) error {
	f.Field = "content"
	var fields map[string]string
	if pageCount > 0 {
		fields = map[string]string{"page_count": strconv.Itoa(pageCount)}
	}
	return c.Upload(ctx, "/admin/books/"+url.PathEscape(id)+"/content", token, fields, []File{f}, nil)
}

func (c *Client) UploadSample(ctx context.Context, token, id string, f File) error {
	f.Field = "sample"
	return c.Upload(ctx, "/admin/books/"+url.PathEscape(id)+"/sample", token, nil, []File{f}, nil)
}
