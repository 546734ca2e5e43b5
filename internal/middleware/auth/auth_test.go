package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	user *api.User
	err  error
}

func (f fakeProfiles) Load(context.Context, string) (*api.User, error) { return f.user, f.err }

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func newCtx(tok string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if tok != "" {
		req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: tok})
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	return he.Code
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestRequireLogin(t *testing.T) {
	t.Parallel()

	m := New(fakeProfiles{}, session.Cookies{})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		c, _ := newCtx("")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, m.RequireLogin(ok)(c)))
	})

	t.Run("expired token clears cookie", func(t *testing.T) {
		t.Parallel()
		c, rec := newCtx(token(t, time.Now().Add(-time.Minute)))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, m.RequireLogin(ok)(c)))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), session.AccessCookie+"=;")
	})

	t.Run("live token", func(t *testing.T) {
		t.Parallel()
		tok := token(t, time.Now().Add(time.Hour))
		c, rec := newCtx(tok)
		require.NoError(t, m.RequireLogin(ok)(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, tok, TokenFrom(c))
		assert.Equal(t, "u1", c.Get("user_id"))
	})

	t.Run("opaque token passes through", func(t *testing.T) {
		t.Parallel()
		c, _ := newCtx("opaque-session-token")
		require.NoError(t, m.RequireLogin(ok)(c))
		assert.Equal(t, "opaque-session-token", TokenFrom(c))
	})
}

func TestOptional(t *testing.T) {
	t.Parallel()

	m := New(fakeProfiles{}, session.Cookies{})

	c, rec := newCtx("")
	require.NoError(t, m.Optional(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, TokenFrom(c))

	c, _ = newCtx(token(t, time.Now().Add(-time.Minute)))
	require.NoError(t, m.Optional(ok)(c))
	assert.Empty(t, TokenFrom(c))
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	live := token(t, time.Now().Add(time.Hour))

	tests := []struct {
		name     string
		profiles fakeProfiles
		want     int
	}{
		{name: "admin", profiles: fakeProfiles{user: &api.User{ID: "1", IsAdmin: true}}, want: http.StatusNoContent},
		{name: "not admin", profiles: fakeProfiles{user: &api.User{ID: "2"}}, want: http.StatusForbidden},
		{name: "backend rejects token", profiles: fakeProfiles{err: &api.Error{Status: 401}}, want: http.StatusUnauthorized},
		{name: "backend down", profiles: fakeProfiles{err: &api.Error{Message: "network error"}}, want: http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := New(tc.profiles, session.Cookies{})
			c, rec := newCtx(live)
			err := m.RequireAdmin(ok)(c)
			if tc.want == http.StatusNoContent {
				require.NoError(t, err)
				assert.Equal(t, tc.want, rec.Code)
				require.NotNil(t, UserFrom(c))
				assert.True(t, UserFrom(c).IsAdmin)
				return
			}
			assert.Equal(t, tc.want, statusOf(t, err))
		})
	}
}
