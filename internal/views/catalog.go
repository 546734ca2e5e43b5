package views

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
)

type CatalogPage struct {
	Books    []api.Book
	Query    string
	Page     int
	PageSize int
	Total    int
}

func (c CatalogPage) hasNext() bool {
	return c.Page*c.PageSize < c.Total
}

func (c CatalogPage) link(page int) string {
	q := url.Values{}
	if c.Query != "" {
		q.Set("q", c.Query)
	}
	q.Set("page", strconv.Itoa(page))
	return "/fragments/books?" + q.Encode()
}

func BookGrid(c CatalogPage) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="catalog" class="catalog">`)
		if len(c.Books) == 0 {
			if c.Query != "" {
				p.f(`<p class="muted">No books match "%s".</p>`, c.Query)
			} else {
				p.raw(`<p class="muted">No books available right now.</p>`)
			}
		}
		p.raw(`<div class="grid">`)
		for _, b := range c.Books {
			p.render(BookCard(b))
		}
		p.raw(`</div>`)
		if c.Page > 1 || c.hasNext() {
			p.raw(`<nav class="pager">`)
			if c.Page > 1 {
				p.f(`<button class="btn ghost" hx-get="%s" hx-target="#catalog" hx-swap="outerHTML">Previous</button>`, c.link(c.Page-1))
			}
			p.f(`<span class="muted">Page %d</span>`, c.Page)
			if c.hasNext() {
				p.f(`<button class="btn ghost" hx-get="%s" hx-target="#catalog" hx-swap="outerHTML">Next</button>`, c.link(c.Page+1))
			}
			p.raw(`</nav>`)
		}
		p.raw(`</section>`)
	})
}

func stockLabel(b api.Book) string {
	switch n := b.StockCount(); {
	case b.Stock == nil:
		return ""
	case n <= 0:
		return "Out of stock"
	case n <= 5:
		return "Only " + strconv.Itoa(n) + " left"
	default:
		return "In stock"
	}
}

func BookCard(b api.Book) templ.Component {
	return component(func(p *writer) {
		p.f(`<article class="card book" id="book-%s">`, b.ID)
		p.f(`<img src="%s" alt="%s" loading="lazy"/>`, cover(b.ImageURL), b.Title)
		p.f(`<h4>%s</h4><p class="muted">%s</p>`, b.Title, b.Author)
		p.f(`<p class="price">%s</p>`, Money(b.Price))
		if s := stockLabel(b); s != "" {
			p.f(`<p class="small muted">%s</p>`, s)
		}
		p.raw(`<div class="row">`)
		p.f(`<button class="btn primary" hx-post="/cart/items" hx-vals='{"book_id":"%s"}' hx-swap="none">Add to cart</button>`, jsonEscape(b.ID.String()))
		p.f(`<button class="btn ghost" hx-post="/wishlist" hx-vals='{"book_id":"%s"}' hx-swap="none" title="Add to wishlist">❤</button>`, jsonEscape(b.ID.String()))
		p.f(`<button class="btn ghost" hx-get="/fragments/books/%s" hx-target="#modal-body">Details</button>`, url.PathEscape(b.ID.String()))
		p.raw(`</div></article>`)
	})
}

// jsonEscape makes a value safe inside a single-quoted hx-vals JSON string.
func jsonEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

type BookDetailView struct {
	Book     api.Book
	Reviews  []api.Review
	LoggedIn bool
}

func averageRating(reviews []api.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating.Float()
	}
	return sum / float64(len(reviews))
}

func BookDetail(v BookDetailView) templ.Component {
	b := v.Book
	return component(func(p *writer) {
		p.f(`<div class="book-detail" id="book-detail-%s">`, b.ID)
		p.f(`<img src="%s" alt="%s"/>`, cover(b.ImageURL), b.Title)
		p.f(`<div><h3>%s</h3><p class="muted">by %s</p>`, b.Title, b.Author)
		p.f(`<p class="price">%s</p>`, Money(b.Price))
		if b.Genre != "" {
			p.f(`<p class="small">Genre: %s</p>`, b.Genre)
		}
		if b.PageCount > 0 {
			p.f(`<p class="small">Pages: %d</p>`, b.PageCount)
		}
		if s := stockLabel(b); s != "" {
			p.f(`<p class="small muted">%s</p>`, s)
		}
		p.f(`<p>%s</p>`, b.Description)
		p.f(`<button class="btn primary" hx-post="/cart/items" hx-vals='{"book_id":"%s"}' hx-swap="none">Add to cart</button>`, jsonEscape(b.ID.String()))
		p.raw(`</div>`)
		p.render(Reviews(b.ID, v.Reviews, v.LoggedIn))
		p.raw(`</div>`)
	})
}

func Reviews(bookID api.ID, reviews []api.Review, loggedIn bool) templ.Component {
	return component(func(p *writer) {
		p.f(`<section class="reviews" id="reviews-%s">`, bookID)
		if len(reviews) == 0 {
			p.raw(`<h4>Reviews</h4><p class="muted">No reviews yet.</p>`)
		} else {
			p.f(`<h4>Reviews (%d) · %.1f ★</h4><ul>`, len(reviews), averageRating(reviews))
			for _, r := range reviews {
				name := r.UserName
				if name == "" {
					name = "Reader"
				}
				p.f(`<li><strong>%s</strong> <span>%s</span> <span class="muted small">%s</span><p>%s</p></li>`,
					name, strings.Repeat("★", max(0, min(5, r.Rating.Int()))), Date(r.CreatedAt), r.Comment)
			}
			p.raw(`</ul>`)
		}
		if loggedIn {
			p.f(`<form hx-post="/books/%s/reviews" hx-target="#reviews-%s" hx-swap="outerHTML">`, url.PathEscape(bookID.String()), bookID)
			p.raw(`<select name="rating">`)
			for i := 5; i >= 1; i-- {
				p.f(`<option value="%d">%d ★</option>`, i, i)
			}
			p.raw(`</select><textarea name="comment" maxlength="1000" placeholder="Share your thoughts"></textarea>`)
			p.raw(`<button class="btn primary" type="submit">Post review</button></form>`)
		}
		p.raw(`</section>`)
	})
}
