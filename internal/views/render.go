package views

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// HXRequest is set by htmx on every request it issues.
const HXRequest = "HX-Request"

func IsHTMX(r *http.Request) bool {
	return r != nil && strings.EqualFold(r.Header.Get(HXRequest), "true")
}

var printer = message.NewPrinter(language.English)

// Money formats rupees with two decimals and thousands grouping.
func Money(v float64) string {
	return "₹" + printer.Sprintf("%.2f", v)
}

const dateLayout = "02 Jan 2006"

// Date renders a backend timestamp, or "-" when it cannot be parsed.
func Date(s string) string {
	if t, ok := api.ParseTime(s); ok {
		return t.Format(dateLayout)
	}
	return "-"
}

func DateOf(t time.Time) string { return t.Format(dateLayout) }

// writer accumulates the first write error so fragments can be written as a
// sequence of calls.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (p *writer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *writer) text(s string) { p.raw(templ.EscapeString(s)) }

// trusted is markup passed through f unescaped.
type trusted string

// f formats trusted markup; string-like arguments are escaped.
func (p *writer) f(format string, args ...any) {
	for i, a := range args {
		switch v := a.(type) {
		case string:
			args[i] = templ.EscapeString(v)
		case api.ID:
			args[i] = templ.EscapeString(string(v))
		case templ.SafeURL:
			args[i] = templ.EscapeString(string(v))
		}
	}
	p.raw(fmt.Sprintf(format, args...))
}

func (p *writer) render(c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(p.ctx, p.w)
}

func component(fn func(p *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{ctx: ctx, w: w}
		fn(p)
		return p.err
	})
}

func cover(url string) templ.SafeURL {
	if strings.TrimSpace(url) == "" {
		return templ.SafeURL("/static/cover-placeholder.svg")
	}
	return templ.URL(url)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Message renders a muted paragraph, used for empty states and inline errors.
func Message(class, text string) templ.Component {
	return component(func(p *writer) {
		p.f(`<p class="%s">%s</p>`, class, text)
	})
}
