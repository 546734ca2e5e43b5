package httpserver

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/booknook/storefront/internal/session"
	"github.com/labstack/echo/v4"
)

//go:embed static
var staticFiles embed.FS

// ShellHTTP serves the single HTML page and its assets. Everything else is
// loaded into it as fragments.
type ShellHTTP struct {
	Cookies session.Cookies
}

func (h *ShellHTTP) Index(c echo.Context) error {
	// Issue the session cookie before the first cart request races for it.
	h.Cookies.SessionID(c)
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.HTMLBlob(http.StatusOK, page)
}

func (h *ShellHTTP) Static(e *echo.Echo) {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	e.StaticFS("/static", sub)
}
