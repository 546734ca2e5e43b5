package views

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/payment"
	"github.com/booknook/storefront/internal/profile"
	"github.com/booknook/storefront/internal/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestMoney(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "₹0.00", Money(0))
	assert.Equal(t, "₹199.99", Money(199.99))
	assert.Equal(t, "₹1,229.99", Money(1229.99))
}

func TestDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "06 Mar 2025", Date("2025-03-06T00:00:00.000Z"))
	assert.Equal(t, "-", Date("soon"))
}

func TestIsHTMX(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	assert.False(t, IsHTMX(r))
	r.Header.Set(HXRequest, "true")
	assert.True(t, IsHTMX(r))
	assert.False(t, IsHTMX(nil))
}

func TestBookCard_EscapesBackendText(t *testing.T) {
	t.Parallel()

	out := renderString(t, BookCard(api.Book{ID: "b1", Title: `<script>alert(1)</script>`, Author: `O"Neil`, Price: 450}))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "O&#34;Neil")
	assert.Contains(t, out, "₹450.00")
	assert.Contains(t, out, "/static/cover-placeholder.svg")
}

func TestCart_Empty(t *testing.T) {
	t.Parallel()

	out := renderString(t, Cart(CartView{}))
	assert.Contains(t, out, `id="cart"`)
	assert.Contains(t, out, "Cart is empty")
	assert.NotContains(t, out, "checkout-form")
}

func TestCart_RentHidesCOD(t *testing.T) {
	t.Parallel()

	books := map[string]api.Book{"b1": {ID: "b1", Title: "Dune", Price: 500}}
	sum := checkout.Compute([]checkout.CartLine{{BookID: "b1", Qty: 1}}, books, checkout.Selection{Mode: checkout.ModeRent}, now())
	out := renderString(t, Cart(CartView{Summary: sum, LoggedIn: true}))

	assert.Contains(t, out, "checkout-form")
	assert.Contains(t, out, "₹175.00")
	assert.NotContains(t, out, `value="cod"`)
}

func TestCartBadge(t *testing.T) {
	t.Parallel()

	out := renderString(t, CartBadge(3))
	assert.Contains(t, out, `id="cart-badge"`)
	assert.Contains(t, out, ">3<")
	assert.Contains(t, renderString(t, GiftBadge(0)), "hidden")
}

func TestProfile_HidesSectionsByAccount(t *testing.T) {
	t.Parallel()

	google := renderString(t, Profile(ProfileView{User: &api.User{Name: "Asha"}, Kind: profile.AccountGoogle}))
	assert.NotContains(t, google, "/profile/password")
	assert.Contains(t, google, "/profile/addresses")

	admin := renderString(t, Profile(ProfileView{User: &api.User{Name: "Root", IsAdmin: true}, Kind: profile.AccountPassword}))
	assert.Contains(t, admin, "/profile/password")
	assert.NotContains(t, admin, "/profile/addresses")
}

func TestReader_Kinds(t *testing.T) {
	t.Parallel()

	pdf := renderString(t, Reader(reader.View{BookID: "b1", Title: "Dune", Kind: reader.KindPDF, SourceURL: reader.ContentURL("b1")}))
	assert.Contains(t, pdf, `data-src="/read/b1/content"`)

	html := renderString(t, Reader(reader.View{BookID: "b1", Kind: reader.KindHTML, Rental: true, ExpiresAt: "01 Apr 2025", SourceURL: "/read/b1/content"}))
	assert.Contains(t, html, "<iframe")
	assert.Contains(t, html, "Expires 01 Apr 2025")

	other := renderString(t, Reader(reader.View{Kind: reader.KindOther, Format: "epub", SourceURL: "javascript:alert(1)"}))
	assert.NotContains(t, other, "javascript:")
}

func TestPendingPayment_EmbedsOptions(t *testing.T) {
	t.Parallel()

	opts := &payment.Options{Key: "rzp_test", Amount: 1229.99, Currency: "INR", OrderID: "order_1"}
	out := renderString(t, PendingPayment(&api.Order{ID: "42"}, opts))
	assert.Contains(t, out, `id="payment-options"`)
	assert.Contains(t, out, `"order_id":"order_1"`)
	assert.Contains(t, out, "₹1,229.99")
}

func TestIdentification_NoMatch(t *testing.T) {
	t.Parallel()

	out := renderString(t, Identification(&api.Identification{}))
	assert.Contains(t, out, "No matching book found")
}

func now() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
