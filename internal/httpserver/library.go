package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/library"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

type LibraryHTTP struct {
	Backend Backend
	Library *library.Service
}

func (h *LibraryHTTP) Orders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.orders")

	orders, err := h.Backend.Orders(ctx, authmw.TokenFrom(c))
	if err != nil {
		return fail(l, "get_orders_error", err)
	}
	return ok(c, views.Orders(checkout.DedupeOrders(orders)))
}

func (h *LibraryHTTP) renderLibrary(c echo.Context, event string) error {
	ctx := c.Request().Context()
	v, err := h.Library.Load(ctx, authmw.TokenFrom(c))
	if err != nil {
		return fail(logging.FromContext(ctx).With("handler", "library.view"), event, err)
	}
	return ok(c, views.Library(v))
}

func (h *LibraryHTTP) Library(c echo.Context) error {
	return h.renderLibrary(c, "get_library_error")
}

func (h *LibraryHTTP) GiftBadge(c echo.Context) error {
	n := 0
	if token := authmw.TokenFrom(c); token != "" {
		n = h.Library.UnclaimedCount(c.Request().Context(), token)
	}
	return ok(c, views.GiftBadge(n))
}

func (h *LibraryHTTP) ClaimGift(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.claim_gift")

	err := h.Library.ClaimGift(ctx, authmw.TokenFrom(c), c.Param("id"))
	switch {
	case errors.Is(err, library.ErrNothingClaimed):
		notify(c, "info", "Gift is already in your library")
	case err != nil:
		return fail(l, "claim_gift_error", err)
	default:
		l.Info("gift_claimed", "gift_id", c.Param("id"))
		success(c, "Gift added to your library")
	}
	trigger(c, eventGiftsChanged, true)
	return h.renderLibrary(c, "claim_gift_render_error")
}

func (h *LibraryHTTP) ClaimAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.claim_all")

	n, err := h.Library.ClaimAll(ctx, authmw.TokenFrom(c))
	if err != nil {
		return fail(l, "claim_all_error", err)
	}
	if n > 0 {
		success(c, strconv.Itoa(n)+" gift(s) added to your library")
	} else {
		notify(c, "info", "No new gifts to add")
	}
	trigger(c, eventGiftsChanged, true)
	return h.renderLibrary(c, "claim_all_render_error")
}

func (h *LibraryHTTP) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.mark_read")

	if err := h.Library.MarkRead(ctx, authmw.TokenFrom(c), c.Param("id")); err != nil {
		return fail(l, "mark_read_error", err)
	}
	trigger(c, eventGiftsChanged, true)
	return h.renderLibrary(c, "mark_read_render_error")
}

func (h *LibraryHTTP) ReadAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.read_all")

	if _, err := h.Library.MarkAllRead(ctx, authmw.TokenFrom(c)); err != nil {
		return fail(l, "read_all_error", err)
	}
	trigger(c, eventGiftsChanged, true)
	return h.renderLibrary(c, "read_all_render_error")
}

func (h *LibraryHTTP) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.add_wishlist")

	msg, err := h.Library.AddToWishlist(ctx, authmw.TokenFrom(c), strings.TrimSpace(c.FormValue("book_id")))
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	success(c, orDefault(msg, "Added to wishlist"))
	return c.NoContent(http.StatusNoContent)
}

func (h *LibraryHTTP) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "library.remove_wishlist")

	msg, err := h.Library.RemoveFromWishlist(ctx, authmw.TokenFrom(c), c.Param("id"))
	if err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	success(c, orDefault(msg, "Removed from wishlist"))
	return h.renderLibrary(c, "remove_wishlist_render_error")
}
