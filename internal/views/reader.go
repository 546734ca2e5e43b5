package views

import (
	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/reader"
)

// Reader renders the reading modal body for a book the user can open.
func Reader(v reader.View) templ.Component {
	return component(func(p *writer) {
		p.f(`<div id="reader" class="reader" data-book-id="%s">`, v.BookID)
		p.f(`<header class="reader-head"><h3>%s</h3><span class="tag">%s</span>`, v.Title, v.AccessLabel())
		if v.Rental && v.ExpiresAt != "" {
			p.f(` <span class="muted">Expires %s</span>`, v.ExpiresAt)
		}
		if v.PageCount > 0 {
			p.f(` <span class="muted">%d pages</span>`, v.PageCount)
		}
		p.raw(`</header>`)

		src := templ.URL(v.SourceURL)
		switch v.Kind {
		case reader.KindPDF:
			p.f(`<div class="pdf-viewer" data-src="%s"><div class="pdf-controls">`, src)
			p.raw(`<button class="btn ghost" data-pdf="prev">Prev</button><span class="pdf-page">1</span><button class="btn ghost" data-pdf="next">Next</button>`)
			p.raw(`<button class="btn ghost" data-pdf="zoom-out">-</button><button class="btn ghost" data-pdf="zoom-in">+</button></div>`)
			p.raw(`<canvas class="pdf-canvas"></canvas></div>`)
		case reader.KindHTML:
			p.f(`<iframe class="html-viewer" src="%s" sandbox="allow-same-origin" title="%s"></iframe>`, src, v.Title)
		default:
			p.f(`<p>This format (%s) opens in a new tab.</p>`, v.Format)
			p.f(`<a class="btn primary" href="%s" target="_blank" rel="noopener">Open book</a>`, src)
		}
		p.raw(`</div>`)
	})
}

func ReaderError(msg string) templ.Component {
	return component(func(p *writer) {
		p.f(`<div id="reader" class="reader error"><p class="bad">%s</p></div>`, msg)
	})
}
