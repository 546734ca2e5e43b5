package httpserver

import (
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/reader"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

type ReaderHTTP struct {
	Reader *reader.Service
	// Content streams book content from the backend; see reader.NewContentProxy.
	Content echo.HandlerFunc
}

// Open renders the reader or, when the book cannot be opened, an inline
// explanation in its place.
func (h *ReaderHTTP) Open(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reader.open")

	id := c.Param("id")
	v, err := h.Reader.Open(ctx, authmw.TokenFrom(c), id, c.QueryParam("title"))
	if err != nil {
		l.Warn("open_book_failed", "book_id", id, "error", err)
		return ok(c, views.ReaderError(reader.ErrorMessage(err)))
	}
	l.Info("book_opened", "book_id", id, "kind", v.Kind, "rental", v.Rental)
	return ok(c, views.Reader(v))
}
