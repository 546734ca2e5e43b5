package auth

import (
	"context"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/session"
	"github.com/labstack/echo/v4"
)

const (
	ctxToken  = "token"
	ctxUserID = "user_id"
	ctxUser   = "user"
)

type ProfileLoader interface {
	Load(ctx context.Context, token string) (*api.User, error)
}

type Middleware struct {
	Profiles ProfileLoader
	Cookies  session.Cookies
	Now      func() time.Time
}

func New(profiles ProfileLoader, cookies session.Cookies) *Middleware {
	return &Middleware{Profiles: profiles, Cookies: cookies, Now: time.Now}
}

// TokenFrom returns the bearer token a guard accepted, or "" for anonymous requests.
func TokenFrom(c echo.Context) string {
	s, _ := c.Get(ctxToken).(string)
	return s
}

// UserFrom returns the profile RequireAdmin loaded.
func UserFrom(c echo.Context) *api.User {
	u, _ := c.Get(ctxUser).(*api.User)
	return u
}

func setUserContext(c echo.Context, token string, claims session.Claims) {
	c.Set(ctxToken, token)
	c.Set(ctxUserID, claims.Subject)
}
