package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/admin"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/assistant"
	"github.com/booknook/storefront/internal/cart"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/library"
	"github.com/booknook/storefront/internal/logging"
	"github.com/booknook/storefront/internal/payment"
	"github.com/booknook/storefront/internal/profile"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

const (
	headerTrigger = "HX-Trigger"
	headerRefresh = "HX-Refresh"

	eventCartChanged  = "cartChanged"
	eventGiftsChanged = "giftsChanged"
	eventAuthRequired = "authRequired"
	eventShowToast    = "showToast"
)

type toast struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// trigger merges events into the HX-Trigger header so a handler can signal
// several of them.
func trigger(c echo.Context, name string, detail any) {
	h := c.Response().Header()
	events := map[string]any{}
	if cur := h.Get(headerTrigger); cur != "" {
		_ = json.Unmarshal([]byte(cur), &events)
	}
	events[name] = detail
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	h.Set(headerTrigger, string(b))
}

func notify(c echo.Context, typ, msg string) {
	if msg == "" {
		return
	}
	trigger(c, eventShowToast, toast{Type: typ, Message: msg})
}

func success(c echo.Context, msg string) { notify(c, "success", msg) }

func render(c echo.Context, status int, comp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return comp.Render(c.Request().Context(), c.Response())
}

func ok(c echo.Context, comp templ.Component) error {
	return render(c, http.StatusOK, comp)
}

var validationErrors = []error{
	checkout.ErrValidation,
	profile.ErrValidation,
	library.ErrValidation,
	admin.ErrValidation,
	payment.ErrValidation,
	assistant.ErrValidation,
	errBadInput,
}

var errBadInput = errors.New("validation")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", errBadInput, msg)
}

// classify maps a service or backend error to the status and message shown
// to the user.
func classify(err error) (int, string) {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, strings.TrimPrefix(err.Error(), "validation: ")
		}
	}
	switch {
	case errors.Is(err, cart.ErrValidation):
		return http.StatusBadRequest, "Invalid cart request"
	case errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound, "Item is not in your cart"
	case errors.Is(err, library.ErrNothingClaimed):
		return http.StatusConflict, "Gift is already in your library"
	case errors.Is(err, admin.ErrNoBookID):
		return http.StatusBadGateway, "Book saved but the server returned no id"
	}

	var ae *api.Error
	if errors.As(err, &ae) {
		switch {
		case ae.Status == 0:
			return http.StatusBadGateway, "Server is unreachable, please try again"
		case ae.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, "Please login again"
		case ae.Status >= 500:
			return http.StatusBadGateway, "Server error, please try again later"
		case ae.Message != "":
			return ae.Status, ae.Message
		default:
			return ae.Status, http.StatusText(ae.Status)
		}
	}
	return http.StatusInternalServerError, "Something went wrong"
}

// fail logs err under event and turns it into the HTTP error the error
// handler renders.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := classify(err)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg).SetInternal(err)
}

// ErrorHandler reports errors as a toast for htmx requests, as JSON for API
// calls and as plain text otherwise.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := http.StatusInternalServerError, "Something went wrong"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		default:
			msg = http.StatusText(status)
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "error", err)
	}

	req := c.Request()
	if views.IsHTMX(req) {
		notify(c, "error", msg)
		if status == http.StatusUnauthorized {
			trigger(c, eventAuthRequired, true)
		}
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		_ = c.JSON(status, map[string]string{"message": msg})
		return
	}
	_ = c.String(status, msg)
}

func formInt(c echo.Context, name string, def int) int {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func formFloat(c echo.Context, name string) (float64, bool) {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// formFile opens an optional upload. A missing part yields nil.
func formFile(c echo.Context, field string) (*api.File, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	if fh.Size == 0 {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &api.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
