package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/profile"
	"github.com/booknook/storefront/internal/session"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

type AccountHTTP struct {
	Backend  Backend
	Profiles *profile.Service
	Cookies  session.Cookies
}

func (h *AccountHTTP) signedIn(c echo.Context, res api.AuthResult) error {
	h.Cookies.SetToken(c, res.Token)
	name := "reader"
	if res.User != nil && res.User.Name != "" {
		name = res.User.Name
	}
	success(c, "Welcome, "+name)
	c.Response().Header().Set(headerRefresh, "true")
	return c.NoContent(http.StatusNoContent)
}

func credentials(c echo.Context) (api.Credentials, error) {
	in := api.Credentials{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}
	if in.Email == "" || in.Password == "" {
		return in, invalid("Email and password are required")
	}
	return in, nil
}

// loginFailed reports rejected credentials without the generic session
// expiry wording.
func loginFailed(l *slog.Logger, event string, err error) error {
	switch api.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "invalid credentials", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password").SetInternal(err)
	}
	return fail(l, event, err)
}

func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	in, err := credentials(c)
	if err != nil {
		return fail(l, "login_invalid", err)
	}
	res, err := h.Backend.Login(ctx, in)
	if err != nil {
		return loginFailed(l, "login_failed", err)
	}
	if res.Token == "" {
		return fail(l, "login_failed", invalid("Login failed, no session was returned"))
	}
	l.Info("successful_login")
	return h.signedIn(c, res)
}

func (h *AccountHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	in := api.Registration{
		Name:     strings.TrimSpace(c.FormValue("name")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
		Phone:    strings.TrimSpace(c.FormValue("phone")),
	}
	switch {
	case in.Name == "" || in.Email == "" || in.Password == "":
		return fail(l, "register_invalid", invalid("Name, email and password are required"))
	case !checkout.ValidEmail(in.Email):
		return fail(l, "register_invalid", invalid("Enter a valid email"))
	case len(in.Password) < profile.MinPasswordLength:
		return fail(l, "register_invalid", invalid("Password must be at least 6 chars"))
	case in.Password != c.FormValue("confirm_password") && c.FormValue("confirm_password") != "":
		return fail(l, "register_invalid", invalid("Passwords do not match"))
	}

	res, err := h.Backend.Register(ctx, in)
	if err != nil {
		return fail(l, "register_failed", err)
	}
	l.Info("successful_register")
	if res.Token == "" {
		success(c, "Account created, please login")
		return c.NoContent(http.StatusCreated)
	}
	return h.signedIn(c, res)
}

func (h *AccountHTTP) GoogleLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.google")

	idToken := strings.TrimSpace(c.FormValue("credential"))
	if idToken == "" {
		return fail(l, "google_login_invalid", invalid("Google sign-in did not return a credential"))
	}
	res, err := h.Backend.GoogleLogin(ctx, idToken)
	if err != nil {
		return fail(l, "google_login_failed", err)
	}
	if res.Token == "" {
		return fail(l, "google_login_failed", invalid("Google sign-in failed, no session was returned"))
	}
	l.Info("successful_google_login")
	return h.signedIn(c, res)
}

// AdminLogin only keeps the session when the account is an admin.
func (h *AccountHTTP) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_login")

	in, err := credentials(c)
	if err != nil {
		return fail(l, "admin_login_invalid", err)
	}
	res, err := h.Backend.Login(ctx, in)
	if err != nil {
		return loginFailed(l, "admin_login_failed", err)
	}
	user := res.User
	if user == nil {
		if user, err = h.Profiles.Load(ctx, res.Token); err != nil {
			return fail(l, "admin_login_profile_error", err)
		}
	}
	if !user.IsAdmin {
		l.Warn("admin_login_denied", "status", 403, "user_id", user.ID)
		return echo.NewHTTPError(http.StatusForbidden, "Not an admin account")
	}
	l.Info("successful_admin_login", "user_id", user.ID)
	return h.signedIn(c, res)
}

func (h *AccountHTTP) Logout(c echo.Context) error {
	h.Cookies.ClearToken(c)
	logging.FromContext(c.Request().Context()).Info("successful_logout")
	success(c, "Logged out")
	c.Response().Header().Set(headerRefresh, "true")
	return c.NoContent(http.StatusNoContent)
}

// profileView loads the profile, addresses and cards concurrently. Address
// and card failures degrade to empty lists.
func (h *AccountHTTP) profileView(ctx context.Context, token string) (views.ProfileView, error) {
	l := logging.FromContext(ctx).With("handler", "account.profile")
	var v views.ProfileView

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := h.Profiles.Load(gctx, token)
		if err != nil {
			return err
		}
		v.User = u
		return nil
	})
	g.Go(func() error {
		addrs, err := h.Profiles.Addresses(gctx, token)
		if err != nil {
			l.Warn("addresses_unavailable", "error", err)
			return nil
		}
		v.Addresses = addrs
		return nil
	})
	g.Go(func() error {
		cards, err := h.Profiles.Cards(gctx, token)
		if err != nil {
			l.Warn("cards_unavailable", "error", err)
			return nil
		}
		v.Cards = cards
		return nil
	})
	if err := g.Wait(); err != nil {
		return views.ProfileView{}, err
	}
	v.Kind = profile.KindOf(v.User)
	return v, nil
}

func (h *AccountHTTP) renderProfile(c echo.Context, event string) error {
	ctx := c.Request().Context()
	v, err := h.profileView(ctx, authmw.TokenFrom(c))
	if err != nil {
		if api.IsUnauthorized(err) {
			h.Cookies.ClearToken(c)
		}
		return fail(logging.FromContext(ctx).With("handler", "account.profile"), event, err)
	}
	return ok(c, views.Profile(v))
}

func (h *AccountHTTP) Profile(c echo.Context) error {
	return h.renderProfile(c, "get_profile_error")
}

func (h *AccountHTTP) SaveProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.save_profile")
	token := authmw.TokenFrom(c)

	pic, closePic, err := formFile(c, "profile_pic")
	if err != nil {
		return fail(l, "save_profile_upload_error", invalid("Could not read the picture"))
	}
	defer closePic()

	current, err := h.Profiles.Load(ctx, token)
	if err != nil {
		return fail(l, "save_profile_load_error", err)
	}
	_, msg, err := h.Profiles.Save(ctx, token, current, profile.Update{
		Name:       c.FormValue("name"),
		Phone:      c.FormValue("phone"),
		Bio:        c.FormValue("bio"),
		PictureURL: c.FormValue("profile_pic_url"),
		Picture:    pic,
	})
	if err != nil {
		return fail(l, "save_profile_error", err)
	}
	l.Info("profile_saved")
	success(c, msg)
	return h.renderProfile(c, "save_profile_render_error")
}

func (h *AccountHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.change_password")

	msg, err := h.Profiles.ChangePassword(ctx, authmw.TokenFrom(c), profile.PasswordChange{
		Current: c.FormValue("current_password"),
		New:     c.FormValue("new_password"),
		Confirm: c.FormValue("confirm_password"),
	})
	if err != nil {
		return fail(l, "change_password_error", err)
	}
	l.Info("password_changed")
	success(c, msg)
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.add_address")

	_, err := h.Profiles.AddAddress(ctx, authmw.TokenFrom(c), api.AddressInput{
		Label:     c.FormValue("label"),
		Recipient: c.FormValue("recipient"),
		Street:    c.FormValue("street"),
		City:      c.FormValue("city"),
		State:     c.FormValue("state"),
		Zip:       c.FormValue("zip"),
	})
	if err != nil {
		return fail(l, "add_address_error", err)
	}
	success(c, "Address saved")
	return h.renderProfile(c, "add_address_render_error")
}

func (h *AccountHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.delete_address")

	msg, err := h.Profiles.DeleteAddress(ctx, authmw.TokenFrom(c), c.Param("id"))
	if err != nil {
		return fail(l, "delete_address_error", err)
	}
	success(c, orDefault(msg, "Address deleted"))
	return h.renderProfile(c, "delete_address_render_error")
}

func (h *AccountHTTP) AddCard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.add_card")

	_, err := h.Profiles.AddCard(ctx, authmw.TokenFrom(c), api.NewCard{
		Holder:   c.FormValue("holder_name"),
		Number:   c.FormValue("card_number"),
		ExpMonth: formInt(c, "exp_month", 0),
		ExpYear:  formInt(c, "exp_year", 0),
		Brand:    c.FormValue("brand"),
	})
	if err != nil {
		return fail(l, "add_card_error", err)
	}
	success(c, "Card saved")
	return h.renderProfile(c, "add_card_render_error")
}

func (h *AccountHTTP) SetDefaultCard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.default_card")

	msg, err := h.Profiles.SetDefaultCard(ctx, authmw.TokenFrom(c), c.Param("id"))
	if err != nil {
		return fail(l, "default_card_error", err)
	}
	success(c, orDefault(msg, "Default card updated"))
	return h.renderProfile(c, "default_card_render_error")
}

func (h *AccountHTTP) DeleteCard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.delete_card")

	msg, err := h.Profiles.DeleteCard(ctx, authmw.TokenFrom(c), c.Param("id"))
	if err != nil {
		return fail(l, "delete_card_error", err)
	}
	success(c, orDefault(msg, "Card deleted"))
	return h.renderProfile(c, "delete_card_render_error")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
