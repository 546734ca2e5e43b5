package views

import (
	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
)

// ChatReply is appended to #chat-log after each message.
func ChatReply(message string, reply *api.ChatReply) templ.Component {
	return component(func(p *writer) {
		p.f(`<div class="chat-msg user">%s</div>`, message)
		p.f(`<div class="chat-msg bot">%s`, reply.Reply)
		if len(reply.Recommendations) > 0 {
			p.raw(`<div class="chat-recs">`)
			for _, b := range reply.Recommendations {
				p.render(miniBook(b))
			}
			p.raw(`</div>`)
		}
		p.raw(`</div>`)
	})
}

func ChatError(msg string) templ.Component {
	return Message("chat-msg bot bad", msg)
}

func miniBook(b api.Book) templ.Component {
	return component(func(p *writer) {
		p.f(`<div class="mini-book" hx-get="/fragments/books/%s" hx-target="#modal-body">`, b.ID)
		p.f(`<img src="%s" alt="%s" loading="lazy"/><div><strong>%s</strong><br/><span class="muted">%s</span> %s</div></div>`,
			cover(b.ImageURL), b.Title, b.Title, b.Author, Money(b.Price))
	})
}

// Identification shows the result of a cover photo lookup.
func Identification(id *api.Identification) templ.Component {
	return component(func(p *writer) {
		p.raw(`<div id="identify-result">`)
		if id.Match == nil {
			p.raw(`<p class="muted">No matching book found. Try a clearer photo of the cover.</p>`)
		} else {
			p.f(`<h4>Best match <span class="muted">(%.0f%% confident)</span></h4>`, id.Confidence*100)
			p.render(miniBook(*id.Match))
		}
		if len(id.Alternatives) > 0 {
			p.raw(`<h5>Other possibilities</h5>`)
			for _, b := range id.Alternatives {
				p.render(miniBook(b))
			}
		}
		if id.ExtractedText != "" {
			p.f(`<details><summary>Text found on cover</summary><pre>%s</pre></details>`, id.ExtractedText)
		}
		p.raw(`</div>`)
	})
}
