package auth

import (
	"net/http"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
	"github.com/labstack/echo/v4"
)

// RequireAdmin loads the profile behind the token and requires is_admin.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireLogin(func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "require.admin")

		u, err := m.Profiles.Load(ctx, TokenFrom(c))
		if err != nil {
			if api.IsUnauthorized(err) {
				m.Cookies.ClearToken(c)
				l.Warn("admin_session_invalid", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Admin session invalid")
			}
			l.Error("admin_profile_error", "status", 502, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "Could not verify admin session")
		}
		if !u.IsAdmin {
			l.Warn("admin_access_denied", "status", 403, "user_id", u.ID)
			return echo.NewHTTPError(http.StatusForbidden, "Admin only")
		}
		c.Set(ctxUser, u)
		return next(c)
	})
}
