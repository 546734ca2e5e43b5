package httpserver

import (
	"net/http"
	"strings"

	"github.com/booknook/storefront/internal/admin"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

type AdminHTTP struct {
	Admin *admin.Service
}

func (h *AdminHTTP) Dashboard(c echo.Context) error {
	return ok(c, views.AdminDashboard(h.Admin.Dashboard(c.Request().Context(), authmw.TokenFrom(c))))
}

func (h *AdminHTTP) Analytics(c echo.Context) error {
	return ok(c, views.AdminAnalytics(h.Admin.Analytics(c.Request().Context(), authmw.TokenFrom(c))))
}

func (h *AdminHTTP) Orders(c echo.Context) error {
	snap := h.Admin.Load(c.Request().Context(), authmw.TokenFrom(c))
	return ok(c, views.AdminOrders(snap.Orders))
}

func (h *AdminHTTP) Users(c echo.Context) error {
	snap := h.Admin.Load(c.Request().Context(), authmw.TokenFrom(c))
	return ok(c, views.AdminUsers(snap.Users))
}

func (h *AdminHTTP) renderBooks(c echo.Context, editID string) error {
	snap := h.Admin.Load(c.Request().Context(), authmw.TokenFrom(c))
	var editing *api.Book
	if editID != "" {
		for i := range snap.Books {
			if snap.Books[i].ID.String() == editID {
				editing = &snap.Books[i]
				break
			}
		}
	}
	return ok(c, views.AdminBooks(snap.Books, editing))
}

func (h *AdminHTTP) Books(c echo.Context) error {
	return h.renderBooks(c, strings.TrimSpace(c.QueryParam("edit")))
}

func (h *AdminHTTP) SaveBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.save_book")

	price, okPrice := formFloat(c, "price")
	if !okPrice {
		return fail(l, "save_book_invalid", invalid("Price must be a number"))
	}
	form := admin.BookForm{
		ID:          strings.TrimSpace(c.FormValue("id")),
		Title:       c.FormValue("title"),
		Author:      c.FormValue("author"),
		Price:       price,
		Stock:       formInt(c, "stock", 0),
		Description: strings.TrimSpace(c.FormValue("description")),
		PageCount:   formInt(c, "page_count", 0),
	}

	for field, dst := range map[string]**api.File{
		"cover_image":  &form.Cover,
		"book_content": &form.Content,
		"book_sample":  &form.Sample,
	} {
		f, closeFile, err := formFile(c, field)
		if err != nil {
			return fail(l, "save_book_upload_error", invalid("Could not read "+field))
		}
		defer closeFile()
		*dst = f
	}

	res, err := h.Admin.SaveBook(ctx, authmw.TokenFrom(c), form)
	if err != nil {
		return fail(l, "save_book_error", err)
	}
	l.Info("book_saved", "book_id", res.BookID, "created", res.Created, "warnings", len(res.Warnings))

	msg := strings.Join(append([]string{res.Message}, res.Notices...), ". ")
	if len(res.Warnings) > 0 {
		notify(c, "warning", msg+". "+strings.Join(res.Warnings, ". "))
	} else {
		success(c, msg)
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	snap := h.Admin.Load(ctx, authmw.TokenFrom(c))
	return render(c, status, views.AdminBooks(snap.Books, nil))
}

func (h *AdminHTTP) UpdateStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_stock")

	raw := strings.TrimSpace(c.FormValue("stock"))
	stock := formInt(c, "stock", -1)
	if raw == "" || stock < 0 {
		return fail(l, "update_stock_invalid", invalid("Stock must be a whole number of at least 0"))
	}
	if err := h.Admin.UpdateStock(ctx, authmw.TokenFrom(c), c.Param("id"), stock); err != nil {
		return fail(l, "update_stock_error", err)
	}
	l.Info("stock_updated", "book_id", c.Param("id"), "stock", stock)
	success(c, "Stock updated")
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_book")

	if err := h.Admin.DeleteBook(ctx, authmw.TokenFrom(c), c.Param("id")); err != nil {
		return fail(l, "delete_book_error", err)
	}
	l.Info("book_deleted", "book_id", c.Param("id"))
	success(c, "Book deleted")
	return h.renderBooks(c, "")
}
