package httpserver

import (
	"net/http"
	"strings"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/catalog"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

const (
	gridPageSize    = 24
	maxReviewLength = 1000
)

type StoreHTTP struct {
	Catalog *catalog.Catalog
	Backend Backend
}

func (h *StoreHTTP) Books(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.books")

	query := strings.TrimSpace(c.QueryParam("q"))
	page := max(formInt(c, "page", 1), 1)

	res, err := h.Catalog.Search(ctx, query, page, gridPageSize)
	if err != nil {
		return fail(l, "list_books_error", err)
	}
	return ok(c, views.BookGrid(views.CatalogPage{
		Books:    res.Books,
		Query:    query,
		Page:     page,
		PageSize: gridPageSize,
		Total:    res.Total,
	}))
}

func (h *StoreHTTP) Book(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.book")

	id := c.Param("id")
	b, err := h.Catalog.Book(ctx, id)
	if err != nil {
		return fail(l, "get_book_error", err)
	}
	reviews, err := h.Backend.Reviews(ctx, id)
	if err != nil {
		l.Warn("reviews_unavailable", "book_id", id, "error", err)
		reviews = nil
	}
	return ok(c, views.BookDetail(views.BookDetailView{
		Book:     b,
		Reviews:  reviews,
		LoggedIn: authmw.TokenFrom(c) != "",
	}))
}

func (h *StoreHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.add_review")

	id := c.Param("id")
	in := api.ReviewInput{
		Rating:  formInt(c, "rating", 0),
		Comment: strings.TrimSpace(c.FormValue("comment")),
	}
	switch {
	case in.Rating < 1 || in.Rating > 5:
		return fail(l, "add_review_invalid", invalid("Choose a rating from 1 to 5"))
	case in.Comment == "":
		return fail(l, "add_review_invalid", invalid("Please write a comment"))
	case len([]rune(in.Comment)) > maxReviewLength:
		return fail(l, "add_review_invalid", invalid("Review is too long"))
	}

	if _, err := h.Backend.AddReview(ctx, authmw.TokenFrom(c), id, in); err != nil {
		return fail(l, "add_review_error", err)
	}
	reviews, err := h.Backend.Reviews(ctx, id)
	if err != nil {
		return fail(l, "reviews_reload_error", err)
	}
	l.Info("review_added", "book_id", id)
	success(c, "Review added")
	return render(c, http.StatusCreated, views.Reviews(api.ID(id), reviews, true))
}
