package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/labstack/echo/v4"
)

// Backend is the part of the REST client the handlers call directly.
type Backend interface {
	Health(ctx context.Context) (api.Health, error)
	Login(ctx context.Context, in api.Credentials) (api.AuthResult, error)
	Register(ctx context.Context, in api.Registration) (api.AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (api.AuthResult, error)
	Orders(ctx context.Context, token string) ([]api.Order, error)
	Reviews(ctx context.Context, bookID string) ([]api.Review, error)
	AddReview(ctx context.Context, token, bookID string, in api.ReviewInput) (*api.Review, error)
}

type Deps struct {
	Auth      *authmw.Middleware
	Backend   Backend
	Shell     *ShellHTTP
	Store     *StoreHTTP
	Cart      *CartHTTP
	Account   *AccountHTTP
	Library   *LibraryHTTP
	Admin     *AdminHTTP
	Reader    *ReaderHTTP
	Assistant *AssistantHTTP
}

// CSRFSkipper exempts routes that carry no cookie-authenticated form posts.
func CSRFSkipper(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/ws/") || strings.HasPrefix(p, "/health/")
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	login, optional, admin := d.Auth.RequireLogin, d.Auth.Optional, d.Auth.RequireAdmin

	e.GET("/", d.Shell.Index)
	d.Shell.Static(e)

	frag := e.Group("/fragments")
	frag.GET("/books", d.Store.Books)
	frag.GET("/books/:id", d.Store.Book, optional)
	frag.GET("/cart", d.Cart.Fragment, optional)
	frag.GET("/cart/badge", d.Cart.Badge)
	frag.GET("/orders", d.Library.Orders, login)
	frag.GET("/library", d.Library.Library, login)
	frag.GET("/gifts/badge", d.Library.GiftBadge, optional)
	frag.GET("/profile", d.Account.Profile, login)
	frag.GET("/reader/:id", d.Reader.Open, login)

	e.POST("/books/:id/reviews", d.Store.AddReview, login)

	cart := e.Group("/cart", optional)
	cart.POST("/items", d.Cart.Add)
	cart.POST("/items/:id/quantity", d.Cart.SetQuantity)
	cart.POST("/items/:id/decrement", d.Cart.Decrement)
	cart.DELETE("/items/:id", d.Cart.Remove)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/buy-now", d.Cart.BuyNow)

	e.POST("/checkout", d.Cart.Checkout, login)
	pay := e.Group("/payments", login)
	pay.POST("/verify", d.Cart.VerifyPayment)
	pay.GET("/status/:id", d.Cart.PaymentStatus)

	auth := e.Group("/auth")
	auth.POST("/login", d.Account.Login)
	auth.POST("/register", d.Account.Register)
	auth.POST("/google", d.Account.GoogleLogin)
	auth.POST("/admin-login", d.Account.AdminLogin)
	auth.POST("/logout", d.Account.Logout)

	prof := e.Group("/profile", login)
	prof.POST("", d.Account.SaveProfile)
	prof.POST("/password", d.Account.ChangePassword)
	prof.POST("/addresses", d.Account.AddAddress)
	prof.DELETE("/addresses/:id", d.Account.DeleteAddress)
	prof.POST("/cards", d.Account.AddCard)
	prof.POST("/cards/:id/default", d.Account.SetDefaultCard)
	prof.DELETE("/cards/:id", d.Account.DeleteCard)

	gifts := e.Group("/gifts", login)
	gifts.POST("/claim-all", d.Library.ClaimAll)
	gifts.POST("/read-all", d.Library.ReadAll)
	gifts.POST("/:id/claim", d.Library.ClaimGift)
	gifts.POST("/:id/read", d.Library.MarkRead)

	wish := e.Group("/wishlist", login)
	wish.POST("", d.Library.AddToWishlist)
	wish.DELETE("/:id", d.Library.RemoveFromWishlist)

	e.GET("/read/:id/content", d.Reader.Content, login)

	ai := e.Group("/assistant", optional)
	ai.POST("/chat", d.Assistant.Chat)
	ai.DELETE("/history", d.Assistant.Reset)
	ai.POST("/identify", d.Assistant.Identify)
	e.GET("/ws/assistant", d.Assistant.Socket, optional)

	adminFrag := e.Group("/fragments/admin", admin)
	adminFrag.GET("/dashboard", d.Admin.Dashboard)
	adminFrag.GET("/analytics", d.Admin.Analytics)
	adminFrag.GET("/orders", d.Admin.Orders)
	adminFrag.GET("/users", d.Admin.Users)
	adminFrag.GET("/books", d.Admin.Books)

	adm := e.Group("/admin", admin)
	adm.POST("/books", d.Admin.SaveBook)
	adm.POST("/books/:id/stock", d.Admin.UpdateStock)
	adm.DELETE("/books/:id", d.Admin.DeleteBook)
}

func (d *Deps) ready(c echo.Context) error {
	ctx := c.Request().Context()
	h, err := d.Backend.Health(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("backend_not_ready", "status", 503, "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "backend": h.Status, "db": bool(h.DB)})
}
