package session

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken = errors.New("missing access token")
	ErrExpired = errors.New("access token expired")
)

// Claims are read without verifying the signature.
type Claims struct {
	Subject   string
	Email     string
	IsAdmin   bool
	ExpiresAt time.Time
}

func Inspect(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrNoToken
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, err
	}

	var c Claims
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.Subject, _ = mc.GetSubject()
	if c.Subject == "" {
		c.Subject = claimString(mc, "id", "userId", "user_id")
	}
	c.Email = claimString(mc, "email")
	switch v := mc["is_admin"].(type) {
	case bool:
		c.IsAdmin = v
	case float64:
		c.IsAdmin = v != 0
	}
	if role, ok := mc["role"].(string); ok && role == "admin" {
		c.IsAdmin = true
	}
	return c, nil
}

// Check rejects tokens that are malformed or past their exp claim. Tokens
// without exp are accepted.
func Check(token string, now time.Time) (Claims, error) {
	c, err := Inspect(token)
	if err != nil {
		return Claims{}, err
	}
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return c, ErrExpired
	}
	return c, nil
}

func claimString(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := mc[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}
