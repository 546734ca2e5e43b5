package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	AccessCookie  = "accessToken"
	SessionCookie = "bn_session"

	accessTTL  = 7 * 24 * time.Hour
	sessionTTL = 30 * 24 * time.Hour
)

// Cookies issues the storefront cookies. Secure is off for plain-http development.
type Cookies struct {
	Secure bool
}

func (c Cookies) create(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c Cookies) delete(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetToken stores the backend token. The cookie lives until the token's own
// expiry when it carries one.
func (c Cookies) SetToken(ec echo.Context, token string) {
	exp := time.Now().Add(accessTTL)
	if claims, err := Inspect(token); err == nil && !claims.ExpiresAt.IsZero() {
		exp = claims.ExpiresAt
	}
	ec.SetCookie(c.create(AccessCookie, token, "/", exp))
}

func (c Cookies) ClearToken(ec echo.Context) {
	ec.SetCookie(c.delete(AccessCookie, "/"))
}

func Token(ec echo.Context) string {
	ck, err := ec.Cookie(AccessCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

// SessionID returns the browser session id, issuing one when absent or malformed.
func (c Cookies) SessionID(ec echo.Context) string {
	if v, ok := ec.Get(SessionCookie).(string); ok && v != "" {
		return v
	}
	if ck, err := ec.Cookie(SessionCookie); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			ec.Set(SessionCookie, ck.Value)
			return ck.Value
		}
	}
	id := uuid.NewString()
	ec.SetCookie(c.create(SessionCookie, id, "/", time.Now().Add(sessionTTL)))
	ec.Set(SessionCookie, id)
	return id
}
