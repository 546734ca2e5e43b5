package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/booknook/storefront/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	return m
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "debug")))
	e.GET("/books/:id", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Debug("inside")
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "backend down")
	})

	req := httptest.NewRequest(http.MethodGet, "/books/7", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	m := lastLine(t, &buf)
	assert.Equal(t, "request completed", m["msg"])
	assert.Equal(t, "/books/:id", m["path"])
	assert.Equal(t, "rid-1", m["request_id"])
	assert.Equal(t, true, m["htmx"])
	assert.EqualValues(t, 200, m["status"])
	assert.Contains(t, buf.String(), `"msg":"inside"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	m = lastLine(t, &buf)
	assert.Equal(t, "ERROR", m["level"])
	assert.EqualValues(t, 502, m["status"])
	assert.Contains(t, m["error"], "backend down")
}
