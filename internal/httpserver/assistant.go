package httpserver

import (
	"net/http"

	"github.com/booknook/storefront/internal/assistant"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/session"
	"github.com/booknook/storefront/internal/views"
	"github.com/labstack/echo/v4"
)

type AssistantHTTP struct {
	Assistant *assistant.Service
	Cookies   session.Cookies
}

// Chat answers with the exchange appended to the chat log. Failures are shown
// in the log rather than as a toast.
func (h *AssistantHTTP) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "assistant.chat")

	msg := c.FormValue("message")
	reply, err := h.Assistant.Chat(ctx, authmw.TokenFrom(c), h.Cookies.SessionID(c), msg)
	if err != nil {
		status, text := classify(err)
		if status >= 500 {
			text = "Assistant is unavailable right now"
		}
		l.Warn("assistant_chat_failed", "status", status, "error", err)
		return ok(c, views.ChatError(text))
	}
	return ok(c, views.ChatReply(msg, reply))
}

func (h *AssistantHTTP) Reset(c echo.Context) error {
	h.Assistant.Reset(h.Cookies.SessionID(c))
	return c.NoContent(http.StatusNoContent)
}

func (h *AssistantHTTP) Identify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "assistant.identify")

	fh, err := c.FormFile("image")
	if err != nil {
		return fail(l, "identify_invalid", invalid("Choose an image to upload"))
	}
	f, err := fh.Open()
	if err != nil {
		return fail(l, "identify_open_error", err)
	}
	defer f.Close()

	id, err := h.Assistant.Identify(ctx, authmw.TokenFrom(c), fh.Filename, f)
	if err != nil {
		return fail(l, "identify_error", err)
	}
	l.Info("book_identified", "matched", id.Match != nil, "alternatives", len(id.Alternatives))
	return ok(c, views.Identification(id))
}

func (h *AssistantHTTP) Socket(c echo.Context) error {
	return assistant.WSHandler(h.Assistant, authmw.TokenFrom, h.Cookies.SessionID)(c)
}
