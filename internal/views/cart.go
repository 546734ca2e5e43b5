package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
)

type CartView struct {
	Summary   checkout.Summary
	Addresses []api.Address
	LoggedIn  bool
	Form      checkout.OrderInput
}

func CartBadge(count int) templ.Component {
	return component(func(p *writer) {
		p.f(`<span id="cart-badge" class="badge" hx-get="/fragments/cart/badge" hx-trigger="cartChanged from:body" hx-swap="outerHTML">%d</span>`, count)
	})
}

var (
	modes    = []checkout.Mode{checkout.ModeBuy, checkout.ModeRent, checkout.ModeGift}
	speeds   = []string{checkout.SpeedStandard, checkout.SpeedExpress, checkout.SpeedPriority}
	payments = []string{checkout.PaymentRazorpay, checkout.PaymentCOD}
)

var modeLabels = map[checkout.Mode]string{
	checkout.ModeBuy:  "Buy",
	checkout.ModeRent: "Rent",
	checkout.ModeGift: "Gift",
}

var paymentLabels = map[string]string{
	checkout.PaymentRazorpay: "Pay online (Razorpay)",
	checkout.PaymentCOD:      "Cash on delivery",
}

func selected(ok bool) string {
	if ok {
		return " selected"
	}
	return ""
}

func checked(ok bool) string {
	if ok {
		return " checked"
	}
	return ""
}

func Cart(v CartView) templ.Component {
	s := v.Summary
	return component(func(p *writer) {
		p.raw(`<section id="cart" class="cart">`)
		if len(s.Lines) == 0 {
			p.raw(`<h3>Your cart</h3><p class="muted">Cart is empty</p></section>`)
			return
		}

		p.raw(`<form id="checkout-form" hx-post="/checkout" hx-target="#cart" hx-swap="outerHTML">`)
		p.raw(`<h3>Your cart</h3><table class="table"><thead><tr><th>Book</th><th>Qty</th><th>Unit</th><th>Total</th><th></th></tr></thead><tbody>`)
		for _, ln := range s.Lines {
			id := url.PathEscape(ln.BookID)
			p.f(`<tr><td><strong>%s</strong><div class="muted small">%s</div></td>`, ln.Title, ln.Author)
			p.f(`<td><button type="button" class="btn ghost small" hx-post="/cart/items/%s/decrement" hx-target="#cart" hx-swap="outerHTML" hx-include="#checkout-form" aria-label="One less">−</button>`, id)
			p.f(`<input type="number" min="1" name="qty-%s" value="%d" hx-post="/cart/items/%s/quantity" hx-trigger="change" hx-target="#cart" hx-swap="outerHTML" hx-include="#checkout-form"/></td>`, ln.BookID, ln.Qty, id)
			p.f(`<td>%s</td><td>%s</td>`, Money(ln.Unit), Money(ln.Total))
			p.f(`<td><button type="button" class="btn ghost small" hx-delete="/cart/items/%s" hx-target="#cart" hx-swap="outerHTML" hx-include="#checkout-form">Remove</button></td></tr>`, id)
		}
		p.raw(`</tbody></table>`)

		refresh := trusted(`hx-get="/fragments/cart" hx-trigger="change" hx-target="#cart" hx-swap="outerHTML" hx-include="#checkout-form"`)
		p.raw(`<fieldset class="modes"><legend>Mode</legend>`)
		for _, m := range modes {
			p.f(`<label><input type="radio" name="mode" value="%s"%s %s/> %s</label>`, string(m), checked(s.Mode == m), refresh, modeLabels[m])
		}
		p.raw(`</fieldset>`)

		if s.Mode == checkout.ModeRent {
			p.f(`<label>Rental period <select name="rental_days" %s>`, refresh)
			for _, d := range []int{checkout.DefaultRentalDays, 60, 90} {
				p.f(`<option value="%d"%s>%d days</option>`, d, selected(s.RentalDays == d), d)
			}
			p.raw(`</select></label>`)
		}

		if s.NeedsShipping {
			p.f(`<label>Shipping <select name="speed" %s>`, refresh)
			for _, sp := range speeds {
				p.f(`<option value="%s"%s>%s (%s, %d days)</option>`, sp, selected(s.Speed == sp), sp, Money(checkout.ShippingFee(sp)), checkout.ETADays(sp))
			}
			p.raw(`</select></label>`)
			p.render(addressPicker(v.Addresses, v.Form.AddressID))
		}

		if s.Mode == checkout.ModeGift {
			p.f(`<label>Recipient email <input type="email" name="gift_email" value="%s" required/></label>`, v.Form.GiftEmail)
		}

		p.raw(`<fieldset class="payments"><legend>Payment</legend>`)
		for _, pm := range payments {
			if pm == checkout.PaymentCOD && !s.NeedsShipping {
				continue
			}
			p.f(`<label><input type="radio" name="payment" value="%s"%s %s/> %s</label>`, pm, checked(s.Payment == pm), refresh, paymentLabels[pm])
		}
		p.raw(`</fieldset>`)
		p.f(`<label>Notes <textarea name="notes" maxlength="500">%s</textarea></label>`, v.Form.Notes)

		p.render(summaryBox(s))
		if v.LoggedIn {
			p.raw(`<button class="btn primary" type="submit">Place order</button>`)
		} else {
			p.raw(`<p class="muted">Please login first to place your order.</p>`)
		}
		p.raw(`<button type="button" class="btn ghost" hx-delete="/cart" hx-target="#cart" hx-swap="outerHTML" hx-confirm="Empty the cart?">Clear cart</button>`)
		p.raw(`</form></section>`)
	})
}

func addressPicker(addrs []api.Address, current string) templ.Component {
	return component(func(p *writer) {
		if len(addrs) == 0 {
			p.raw(`<p class="muted">Add a shipping address in your profile to continue.</p>`)
			return
		}
		p.raw(`<label>Deliver to <select name="address_id">`)
		for i, a := range addrs {
			sel := current == a.ID.String() || (current == "" && i == 0)
			p.f(`<option value="%s"%s>%s: %s, %s, %s %s</option>`, a.ID, selected(sel), a.Label, a.Street, a.City, a.State, a.Zip)
		}
		p.raw(`</select></label>`)
	})
}

func summaryBox(s checkout.Summary) templ.Component {
	return component(func(p *writer) {
		p.raw(`<dl class="summary">`)
		p.f(`<dt>Order date</dt><dd>%s</dd>`, DateOf(s.OrderDate))
		p.f(`<dt>Items</dt><dd>%s</dd>`, Money(s.Subtotal))
		if s.NeedsShipping {
			p.f(`<dt>Shipping (%s)</dt><dd>%s</dd>`, s.Speed, Money(s.ShippingFee))
			if s.CODFee > 0 {
				p.f(`<dt>COD fee</dt><dd>%s</dd>`, Money(s.CODFee))
			}
		}
		if s.DeliveryETA != nil {
			p.f(`<dt>Estimated delivery</dt><dd>%s</dd>`, DateOf(*s.DeliveryETA))
		}
		if s.DueDate != nil {
			p.f(`<dt>Return by</dt><dd>%s (%s days)</dd>`, DateOf(*s.DueDate), strconv.Itoa(s.RentalDays))
		}
		p.f(`<dt>Total</dt><dd class="total">%s</dd>`, Money(s.Total))
		p.raw(`</dl>`)
	})
}
