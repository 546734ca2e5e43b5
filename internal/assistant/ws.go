package assistant

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/logging"
	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
)

// Same-origin only: the socket rides on the session cookie.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeWait     = 10 * time.Second
	maxFrameBytes = 8 << 10
	typeReply     = "reply"
	typeError     = "error"
)

type incomingMessage struct {
	Message string `json:"message"`
}

type Frame struct {
	Type            string     `json:"type"`
	Reply           string     `json:"reply,omitempty"`
	Recommendations []api.Book `json:"recommendations,omitempty"`
	Error           string     `json:"error,omitempty"`
	At              time.Time  `json:"at"`
}

// WSHandler relays each chat message to the backend and writes the reply back
// on the same socket. Plain text frames are accepted as the message itself.
func WSHandler(svc *Service, token, session func(echo.Context) string) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("handler", "assistant.ws")

		tok, sess := token(c), session(c)
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			l.Warn("ws_upgrade_failed", "error", err)
			return nil
		}
		defer ws.Close()
		ws.SetReadLimit(maxFrameBytes)

		ctx := c.Request().Context()
		for {
			_, payload, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					l.Debug("ws_read_stopped", "error", err)
				}
				return nil
			}

			text := strings.TrimSpace(string(payload))
			var incoming incomingMessage
			if json.Unmarshal(payload, &incoming) == nil {
				text = incoming.Message
			}

			out := Frame{Type: typeReply}
			reply, err := svc.Chat(ctx, tok, sess, text)
			switch {
			case errors.Is(err, ErrValidation):
				out = Frame{Type: typeError, Error: strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")}
			case err != nil:
				l.Warn("assistant_chat_error", "status", api.StatusOf(err), "error", err)
				out = Frame{Type: typeError, Error: "Assistant is unavailable right now"}
			default:
				out.Reply = reply.Reply
				out.Recommendations = reply.Recommendations
			}
			out.At = time.Now().UTC()

			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(out); err != nil {
				l.Debug("ws_write_failed", "error", err)
				return nil
			}
		}
	}
}
