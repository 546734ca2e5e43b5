package views

import (
	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/payment"
)

// PaymentOptionsID is the script element the shell reads gateway options from.
const PaymentOptionsID = "payment-options"

// PendingPayment replaces the cart while the gateway widget is open.
func PendingPayment(order *api.Order, opts *payment.Options) templ.Component {
	return component(func(p *writer) {
		p.f(`<section id="cart" class="payment-pending" data-order-id="%s">`, order.ID)
		p.f(`<h3>Complete your payment</h3><p>Order #%s for %s.</p>`, order.ID, Money(opts.Amount))
		p.render(templ.JSONScript(PaymentOptionsID, opts))
		p.raw(`<button class="btn primary" data-pay="open">Pay now</button> `)
		p.f(`<button class="btn ghost" hx-get="/payments/status/%s" hx-target="#payment-status">Check status</button>`, order.ID)
		p.raw(`<div id="payment-status"></div></section>`)
	})
}

func PaymentStatus(st *api.PaymentStatus) templ.Component {
	return component(func(p *writer) {
		class := "muted"
		if st.Success {
			class = "good"
		}
		p.f(`<p class="%s">Payment %s`, class, st.Status)
		if st.PaymentID != "" {
			p.f(` (ref %s)`, st.PaymentID)
		}
		p.raw(`</p>`)
	})
}

// OrderPlaced replaces the cart once an order needs no further action.
func OrderPlaced(order *api.Order, msg string) templ.Component {
	return component(func(p *writer) {
		p.f(`<section id="cart" class="order-placed"><h3>%s</h3><p>Order #%s</p>`, msg, order.ID)
		p.raw(`<button class="btn" hx-get="/fragments/orders" hx-target="#main">View orders</button></section>`)
	})
}
