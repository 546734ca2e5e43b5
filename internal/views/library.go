package views

import (
	"net/url"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/library"
)

func GiftBadge(count int) templ.Component {
	return component(func(p *writer) {
		hidden := ""
		if count == 0 {
			hidden = " hidden"
		}
		p.f(`<span id="gift-badge" class="badge%s" hx-get="/fragments/gifts/badge" hx-trigger="giftsChanged from:body" hx-swap="outerHTML">%d</span>`, hidden, count)
	})
}

func readButton(b api.Book) string {
	return "/fragments/reader/" + url.PathEscape(b.ID.String()) + "?title=" + url.QueryEscape(b.Title)
}

func Library(v library.View) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="library" class="library"><h3>My library</h3>`)
		if v.FromOrders {
			p.raw(`<p class="muted small">Showing books from your order history.</p>`)
		}
		if len(v.Owned) == 0 && len(v.Rented) == 0 && len(v.Gifts) == 0 {
			p.raw(`<p class="muted">Your library is empty.</p>`)
		}

		p.raw(`<div class="grid">`)
		for _, e := range v.Owned {
			p.render(libraryCard(e.Book, "Owned", "", true))
		}
		for _, e := range v.Rented {
			status := "Rental (Expired)"
			if e.Active {
				status = "Rental (Active)"
			}
			until := ""
			if e.RentalEnd != "" {
				until = "Until " + Date(e.RentalEnd)
			}
			p.render(libraryCard(e.Book, status, until, e.Active))
		}
		p.raw(`</div>`)

		p.render(Gifts(v.Gifts, v.Unclaimed))
		p.render(Wishlist(v.Wishlist))
		p.raw(`</section>`)
	})
}

func libraryCard(b api.Book, status, note string, readable bool) templ.Component {
	return component(func(p *writer) {
		p.f(`<article class="card book"><img src="%s" alt="%s"/>`, cover(b.ImageURL), b.Title)
		p.f(`<h4>%s</h4><p class="muted">%s</p><span class="tag">%s</span>`, b.Title, b.Author, status)
		if note != "" {
			p.f(`<p class="small muted">%s</p>`, note)
		}
		if readable {
			p.f(`<button class="btn primary" hx-get="%s" hx-target="#modal-body">Read</button>`, readButton(b))
		}
		p.raw(`</article>`)
	})
}

func Gifts(gifts []api.Gift, unclaimed int) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="gifts" class="gifts"><h4>Gifts</h4>`)
		if len(gifts) == 0 {
			p.raw(`<p class="muted">No gifts yet.</p></section>`)
			return
		}
		if unclaimed > 0 {
			p.f(`<p>%d new %s. `, unclaimed, plural(unclaimed, "gift", "gifts"))
			p.raw(`<button class="btn small" hx-post="/gifts/claim-all" hx-target="#library" hx-swap="outerHTML">Add all to library</button> `)
			p.raw(`<button class="btn ghost small" hx-post="/gifts/read-all" hx-target="#library" hx-swap="outerHTML">Mark all read</button></p>`)
		}
		p.raw(`<div class="grid">`)
		for _, g := range gifts {
			title := g.Title
			if title == "" {
				title = "Book #" + g.BookID.String()
			}
			b := api.Book{ID: g.BookID, Title: title, Author: g.Author, ImageURL: g.ImageURL}
			p.f(`<article class="card book gift"><img src="%s" alt="%s"/>`, cover(b.ImageURL), title)
			p.f(`<h4>%s</h4><p class="muted">%s</p>`, title, g.Author)
			if g.Sender != "" {
				p.f(`<p class="small">From %s</p>`, g.Sender)
			}
			if g.Claimed() {
				p.raw(`<span class="tag">In Library</span>`)
				p.f(`<button class="btn primary" hx-get="%s" hx-target="#modal-body">Read</button>`, readButton(b))
			} else {
				id := url.PathEscape(g.ID.String())
				p.raw(`<span class="tag new">New Gift</span>`)
				p.f(`<button class="btn primary" hx-post="/gifts/%s/claim" hx-target="#library" hx-swap="outerHTML">Add to Library</button>`, id)
				p.f(`<button class="btn ghost small" hx-post="/gifts/%s/read" hx-target="#library" hx-swap="outerHTML">Mark read</button>`, id)
			}
			p.raw(`</article>`)
		}
		p.raw(`</div></section>`)
	})
}

func Wishlist(items []api.WishlistItem) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="wishlist" class="wishlist"><h4>Wishlist</h4>`)
		if len(items) == 0 {
			p.raw(`<p class="muted">Your wishlist is empty.</p></section>`)
			return
		}
		p.raw(`<div class="grid">`)
		for _, w := range items {
			p.f(`<article class="card book"><img src="%s" alt="%s"/>`, cover(w.ImageURL), w.Title)
			p.f(`<h4>%s</h4><p class="muted">%s</p><p class="price">%s</p>`, w.Title, w.Author, Money(w.Price.Float()))
			p.f(`<button class="btn primary" hx-post="/cart/items" hx-vals='{"book_id":"%s"}' hx-swap="none">Add to cart</button>`, jsonEscape(w.BookID.String()))
			p.f(`<button class="btn small" hx-post="/cart/buy-now" hx-vals='{"book_id":"%s"}' hx-target="#main">Buy now</button>`, jsonEscape(w.BookID.String()))
			p.f(`<button class="btn ghost small" hx-delete="/wishlist/%s" hx-target="#library" hx-swap="outerHTML">Remove</button>`, url.PathEscape(w.BookID.String()))
			p.raw(`</article>`)
		}
		p.raw(`</div></section>`)
	})
}
