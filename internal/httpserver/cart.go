package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/cart"
	"github.com/booknook/storefront/internal/catalog"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/payment"
	"github.com/booknook/storefront/internal/profile"
	"github.com/booknook/storefront/internal/session"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Cart     *cart.Service
	Catalog  *catalog.Catalog
	Profiles *profile.Service
	Payments *payment.Service
	Cookies  session.Cookies
	Now      func() time.Time
}

func (h *CartHTTP) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// selection reads the checkout choices the cart form carries along with every
// refresh.
func selection(c echo.Context) (checkout.Selection, checkout.OrderInput) {
	sel := checkout.Selection{
		Mode:       checkout.ParseMode(c.FormValue("mode")),
		Speed:      c.FormValue("speed"),
		Payment:    c.FormValue("payment"),
		RentalDays: formInt(c, "rental_days", checkout.DefaultRentalDays),
	}
	in := checkout.OrderInput{
		AddressID: c.FormValue("address_id"),
		GiftEmail: c.FormValue("gift_email"),
		Notes:     c.FormValue("notes"),
	}
	return sel, in
}

func (h *CartHTTP) summary(ctx context.Context, sessionID string, sel checkout.Selection) (checkout.Summary, error) {
	lines, err := h.Cart.Lines(ctx, sessionID)
	if err != nil {
		return checkout.Summary{}, err
	}
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.BookID)
	}
	return checkout.Compute(lines, h.Catalog.Lookup(ctx, ids), sel, h.now()), nil
}

// view renders the cart as it stands, keeping the form choices the request
// carried.
func (h *CartHTTP) view(c echo.Context, l *slog.Logger) (views.CartView, error) {
	ctx := c.Request().Context()
	sel, in := selection(c)
	sum, err := h.summary(ctx, h.Cookies.SessionID(c), sel)
	if err != nil {
		return views.CartView{}, err
	}
	v := views.CartView{Summary: sum, Form: in}
	if token := authmw.TokenFrom(c); token != "" {
		v.LoggedIn = true
		if sum.NeedsShipping && len(sum.Lines) > 0 {
			addrs, err := h.Profiles.Addresses(ctx, token)
			if err != nil {
				l.Warn("addresses_unavailable", "error", err)
			}
			v.Addresses = addrs
		}
	}
	return v, nil
}

func (h *CartHTTP) renderCart(c echo.Context, event string) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.fragment")
	v, err := h.view(c, l)
	if err != nil {
		return fail(l, event, err)
	}
	return ok(c, views.Cart(v))
}

func (h *CartHTTP) Fragment(c echo.Context) error {
	return h.renderCart(c, "get_cart_error")
}

func (h *CartHTTP) Badge(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.badge")

	n, err := h.Cart.Count(ctx, h.Cookies.SessionID(c))
	if err != nil {
		l.Warn("cart_count_error", "error", err)
		n = 0
	}
	return ok(c, views.CartBadge(n))
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	bookID := strings.TrimSpace(c.FormValue("book_id"))
	if bookID == "" {
		return fail(l, "add_to_cart_invalid", invalid("Choose a book to add"))
	}
	b, err := h.Catalog.Book(ctx, bookID)
	if err != nil {
		return fail(l, "add_to_cart_lookup_error", err)
	}
	if b.Stock != nil && *b.Stock <= 0 {
		return fail(l, "add_to_cart_out_of_stock", invalid("This book is out of stock"))
	}
	if _, err := h.Cart.Add(ctx, h.Cookies.SessionID(c), bookID, formInt(c, "qty", 1)); err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("item_added_to_cart", "book_id", bookID)
	trigger(c, eventCartChanged, true)
	success(c, "Added to cart")
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	id := c.Param("id")
	qty := formInt(c, "qty-"+id, formInt(c, "qty", 1))
	if err := h.Cart.SetQuantity(ctx, h.Cookies.SessionID(c), id, qty); err != nil && !errors.Is(err, cart.ErrNotFound) {
		return fail(l, "set_quantity_error", err)
	}
	trigger(c, eventCartChanged, true)
	return h.renderCart(c, "set_quantity_render_error")
}

// Decrement takes one copy off a line and drops the line at zero.
func (h *CartHTTP) Decrement(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.decrement")

	id := c.Param("id")
	deleted, _, err := h.Cart.RemoveOne(ctx, h.Cookies.SessionID(c), id)
	if err != nil && !errors.Is(err, cart.ErrNotFound) {
		return fail(l, "decrement_error", err)
	}
	if deleted {
		l.Info("item_removed_from_cart", "book_id", id)
	}
	trigger(c, eventCartChanged, true)
	return h.renderCart(c, "decrement_render_error")
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	if err := h.Cart.Remove(ctx, h.Cookies.SessionID(c), c.Param("id")); err != nil && !errors.Is(err, cart.ErrNotFound) {
		return fail(l, "remove_from_cart_error", err)
	}
	trigger(c, eventCartChanged, true)
	return h.renderCart(c, "remove_render_error")
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Cart.Clear(ctx, h.Cookies.SessionID(c)); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	l.Info("cart_cleared")
	trigger(c, eventCartChanged, true)
	success(c, "Cart cleared")
	return ok(c, views.Cart(views.CartView{LoggedIn: authmw.TokenFrom(c) != ""}))
}

// BuyNow replaces the cart with a single book and opens it.
func (h *CartHTTP) BuyNow(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.buy_now")

	bookID := strings.TrimSpace(c.FormValue("book_id"))
	if bookID == "" {
		return fail(l, "buy_now_invalid", invalid("Choose a book to buy"))
	}
	if err := h.Cart.Replace(ctx, h.Cookies.SessionID(c), []checkout.CartLine{{BookID: bookID, Qty: 1}}); err != nil {
		return fail(l, "buy_now_error", err)
	}
	trigger(c, eventCartChanged, true)
	return h.renderCart(c, "buy_now_render_error")
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	token, sessionID := authmw.TokenFrom(c), h.Cookies.SessionID(c)
	sel, in := selection(c)
	sum, err := h.summary(ctx, sessionID, sel)
	if err != nil {
		return fail(l, "checkout_cart_error", err)
	}

	user, err := h.Profiles.Load(ctx, token)
	if err != nil {
		if api.IsUnauthorized(err) {
			h.Cookies.ClearToken(c)
			return fail(l, "checkout_session_invalid", err)
		}
		l.Warn("checkout_profile_unavailable", "error", err)
	}

	res, err := h.Payments.Checkout(ctx, token, sessionID, sum, in, user)
	if err != nil {
		if res.Order != nil {
			l.Error("payment_start_failed", "status", http.StatusPaymentRequired, "order_id", res.Order.ID, "error", err)
			return echo.NewHTTPError(http.StatusPaymentRequired,
				"Order #"+res.Order.ID.String()+" was created but payment could not be started. Please try again.").SetInternal(err)
		}
		return fail(l, "checkout_error", err)
	}

	if res.Options == nil {
		l.Info("order_placed", "order_id", res.Order.ID, "mode", sum.Mode, "payment", sum.Payment)
		trigger(c, eventCartChanged, true)
		success(c, "Order placed successfully")
		return ok(c, views.OrderPlaced(res.Order, "Order placed successfully"))
	}
	l.Info("payment_initiated", "order_id", res.Order.ID, "amount", sum.Total)
	return ok(c, views.PendingPayment(res.Order, res.Options))
}

func (h *CartHTTP) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	var req struct {
		GatewayOrderID   string `json:"razorpay_order_id" form:"razorpay_order_id"`
		GatewayPaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id"`
		Signature        string `json:"razorpay_signature" form:"razorpay_signature"`
		OrderID          string `json:"booknook_order_id" form:"booknook_order_id"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(l, "verify_payment_bind_error", invalid("Invalid payment response"))
	}

	err := h.Payments.Verify(ctx, authmw.TokenFrom(c), h.Cookies.SessionID(c), payment.Verification{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		OrderID:          req.OrderID,
	})
	if err != nil {
		status, msg := classify(err)
		if status >= 500 || api.StatusOf(err) == http.StatusBadRequest {
			status, msg = http.StatusPaymentRequired, "Payment verification failed"
		}
		l.Warn("verify_payment_failed", "status", status, "order_id", req.OrderID, "error", err)
		return echo.NewHTTPError(status, msg).SetInternal(err)
	}

	l.Info("payment_verified", "order_id", req.OrderID)
	trigger(c, eventCartChanged, true)
	success(c, "Payment successful")
	return ok(c, views.OrderPlaced(&api.Order{ID: api.ID(req.OrderID)}, "Payment successful"))
}

func (h *CartHTTP) PaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.status")

	st, err := h.Payments.Status(ctx, authmw.TokenFrom(c), c.Param("id"))
	if err != nil {
		return fail(l, "payment_status_error", err)
	}
	return ok(c, views.PaymentStatus(st))
}
