package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// PlaceOrder creates an order; the backend answers {order} or the order itself.
// It is never retried since a replay would place a second order.
func (c *Client) PlaceOrder(ctx context.Context, token string, in OrderRequest) (*Order, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPost, "/orders", &raw, WithToken(token), WithBody(in), WithCallRetries(0)); err != nil {
		return nil, err
	}
	var env struct {
		Order *Order `json:"order"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Order != nil {
		return env.Order, nil
	}
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, &Error{Message: "decode order", Err: err}
	}
	return &o, nil
}

func (c *Client) Orders(ctx context.Context, token string) ([]Order, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/orders", &raw, WithToken(token)); err != nil {
		if c.offline(err) {
			return []Order{}, nil
		}
		return nil, err
	}
	return listOf[Order](raw, "orders")
}

func (c *Client) Order(ctx context.Context, token, id string) (*Order, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), &raw, WithToken(token)); err != nil {
		return nil, err
	}
	var env struct {
		Order *Order `json:"order"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Order != nil {
		return env.Order, nil
	}
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, &Error{Message: "decode order", Err: err}
	}
	return &o, nil
}

func (c *Client) Library(ctx context.Context, token string) (*Library, error) {
	var lib Library
	if err := c.Do(ctx, http.MethodGet, "/library", &lib, WithToken(token)); err != nil {
		if c.offline(err) {
			return &Library{Owned: []LibraryEntry{}, Rented: []LibraryEntry{}}, nil
		}
		return nil, err
	}
	return &lib, nil
}

func (c *Client) Gifts(ctx context.Context, token string) ([]Gift, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/gifts/mine", &raw, WithToken(token)); err != nil {
		if c.offline(err) {
			return []Gift{}, nil
		}
		return nil, err
	}
	return listOf[Gift](raw, "gifts")
}

func (c *Client) ClaimGifts(ctx context.Context, token string) (ClaimResult, error) {
	var res ClaimResult
	err := c.Do(ctx, http.MethodPost, "/gifts/claim", &res, WithToken(token), WithBody(struct{}{}))
	return res, err
}

func (c *Client) ClaimGift(ctx context.Context, token, giftID string) (ClaimResult, error) {
	var res ClaimResult
	err := c.Do(ctx, http.MethodPost, "/gifts/claim/"+url.PathEscape(giftID), &res, WithToken(token), WithBody(struct{}{}))
	return res, err
}

func (c *Client) MarkGiftRead(ctx context.Context, token, giftID string) (ReadResult, error) {
	var res ReadResult
	err := c.Do(ctx, http.MethodPost, "/gifts/read/"+url.PathEscape(giftID), &res, WithToken(token), WithBody(struct{}{}))
	return res, err
}

func (c *Client) MarkAllGiftsRead(ctx context.Context, token string) (ReadResult, error) {
	var res ReadResult
	err := c.Do(ctx, http.MethodPost, "/gifts/read-all", &res, WithToken(token), WithBody(struct{}{}))
	return res, err
}

func (c *Client) Wishlist(ctx context.Context, token string) ([]WishlistItem, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/wishlist", &raw, WithToken(token)); err != nil {
		if c.offline(err) {
			return []WishlistItem{}, nil
		}
		return nil, err
	}
	return listOf[WishlistItem](raw, "wishlist")
}

func (c *Client) AddToWishlist(ctx context.Context, token, bookID string) (string, error) {
	return c.ack(ctx, http.MethodPost, "/wishlist", token, map[string]string{"book_id": bookID}, "added")
}

func (c *Client) RemoveFromWishlist(ctx context.Context, token, bookID string) (string, error) {
	return c.ack(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(bookID), token, nil, "removed")
}
