package views

import (
	"strings"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
)

func modeName(mode string) string {
	switch checkout.ParseMode(mode) {
	case checkout.ModeRent:
		return "Rent"
	case checkout.ModeGift:
		return "Gift"
	default:
		return "Buy"
	}
}

func itemTitle(it api.OrderItem) string {
	if it.Title != "" {
		return it.Title
	}
	return "Book #" + it.BookID.String()
}

// Orders lists the order history newest first as the backend returns it,
// numbered from 1.
func Orders(orders []api.Order) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="orders" class="orders"><h3>Your orders</h3>`)
		if len(orders) == 0 {
			p.raw(`<p class="muted">No orders yet.</p></section>`)
			return
		}
		for i, o := range orders {
			t := checkout.TotalsFor(o)
			p.f(`<article class="card order" id="order-%s">`, o.ID)
			p.f(`<header><strong>#%d</strong> <span class="tag">%s</span>`, i+1, modeName(o.Mode))
			if o.Status != "" {
				p.f(` <span class="tag">%s</span>`, o.Status)
			}
			p.f(` <span class="muted small">%s</span></header>`, Date(o.CreatedAt))
			p.raw(`<ul>`)
			for _, it := range o.Items {
				p.f(`<li>%s × %d · %s</li>`, itemTitle(it), it.Quantity.Int(), Money(it.Price.Float()))
			}
			p.raw(`</ul>`)
			p.render(orderTotals(o, t))
			p.raw(`</article>`)
		}
		p.raw(`</section>`)
	})
}

func orderTotals(o api.Order, t checkout.OrderTotals) templ.Component {
	return component(func(p *writer) {
		p.raw(`<dl class="summary">`)
		p.f(`<dt>Items</dt><dd>%s</dd>`, Money(t.ItemsTotal))
		if t.ShippingFee > 0 {
			p.f(`<dt>Shipping</dt><dd>%s</dd>`, Money(t.ShippingFee))
		}
		if t.CODFee > 0 {
			p.f(`<dt>COD fee</dt><dd>%s</dd>`, Money(t.CODFee))
		}
		p.f(`<dt>Grand total</dt><dd class="total">%s</dd>`, Money(t.GrandTotal))
		if o.PaymentMethod != "" {
			p.f(`<dt>Payment</dt><dd>%s</dd>`, strings.ToUpper(o.PaymentMethod))
		}
		if t.ShowETA {
			p.f(`<dt>Delivery ETA</dt><dd>%s</dd>`, t.ETA)
		}
		if o.RentalEnd != "" {
			p.f(`<dt>Rental ends</dt><dd>%s</dd>`, Date(o.RentalEnd))
		}
		if o.GiftEmail != "" {
			p.f(`<dt>Gifted to</dt><dd>%s</dd>`, o.GiftEmail)
		}
		p.raw(`</dl>`)
	})
}
