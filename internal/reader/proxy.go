package reader

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
	echo "github.com/labstack/echo/v4"
)

// TokenFunc extracts the caller's backend token.
type TokenFunc func(c echo.Context) string

// NewContentProxy streams /books/{id}/content from the backend with the
// caller's bearer token. Browser cookies never reach the backend and backend
// cookies never reach the browser.
func NewContentProxy(backendURL string, token TokenFunc) (echo.HandlerFunc, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}

	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = baseTransport

	origDirector := p.Director
	p.Director = func(req *http.Request) {
		origDirector(req)
		req.Host = u.Host
		req.Header.Del("Cookie")
	}

	p.ModifyResponse = func(resp *http.Response) error {
		resp.Header.Del("Set-Cookie")
		if resp.StatusCode < http.StatusBadRequest {
			resp.Header.Set("Content-Disposition", "inline")
		}
		resp.Header.Set("Cache-Control", "no-store")
		resp.Header.Set("X-Content-Type-Options", "nosniff")
		return nil
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.FromContext(r.Context()).Error("content_proxy_error", "status", http.StatusBadGateway, "error", err)
		http.Error(w, "content unavailable", http.StatusBadGateway)
	}

	p.FlushInterval = 100 * time.Millisecond

	return func(c echo.Context) error {
		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "book id required")
		}
		tok := token(c)
		if tok == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Please login first")
		}

		out := c.Request().Clone(c.Request().Context())
		out.URL.Path = api.ContentPath(id)
		out.URL.RawPath = ""
		out.URL.RawQuery = ""
		out.Header.Set("Authorization", "Bearer "+tok)
		out.Header.Set("Accept", "application/pdf, text/html, */*")

		p.ServeHTTP(c.Response(), out)
		return nil
	}, nil
}
