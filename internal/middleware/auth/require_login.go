package auth

import (
	"errors"
	"net/http"

	"github.com/booknook/storefront/internal/session"
	"github.com/labstack/echo/v4"
)

// RequireLogin rejects requests without an access token cookie, and clears
// tokens whose exp claim has passed.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.accept(c); err != nil {
			return err
		}
		return next(c)
	}
}

// Optional attaches a live token when present and never rejects.
func (m *Middleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		_ = m.accept(c)
		return next(c)
	}
}

func (m *Middleware) accept(c echo.Context) error {
	token := session.Token(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please login first")
	}
	claims, err := session.Check(token, m.Now())
	if errors.Is(err, session.ErrExpired) {
		m.Cookies.ClearToken(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please login again")
	}
	// Opaque tokens cannot be inspected; the backend judges them.
	setUserContext(c, token, claims)
	return nil
}
