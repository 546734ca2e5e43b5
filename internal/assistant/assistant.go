package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/booknook/storefront/internal/api"
)

const (
	MaxMessageLen = 1000
	MaxHistory    = 10
	MaxImageBytes = 5 << 20
)

var ErrValidation = errors.New("validation")

type Backend interface {
	Recommend(ctx context.Context, token string, in api.ChatRequest) (*api.ChatReply, error)
	IdentifyBook(ctx context.Context, token string, image api.File) (*api.Identification, error)
}

// histories keeps the last MaxHistory turns per session.
type histories struct {
	mu sync.Mutex
	m  map[string][]api.ChatTurn
}

func (h *histories) get(session string) []api.ChatTurn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]api.ChatTurn(nil), h.m[session]...)
}

func (h *histories) append(session string, turns ...api.ChatTurn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	all := append(h.m[session], turns...)
	if len(all) > MaxHistory {
		all = append([]api.ChatTurn(nil), all[len(all)-MaxHistory:]...)
	}
	h.m[session] = all
}

func (h *histories) reset(session string) {
	h.mu.Lock()
	delete(h.m, session)
	h.mu.Unlock()
}

type Service struct {
	api     Backend
	history *histories
}

func New(backend Backend) *Service {
	return &Service{api: backend, history: &histories{m: map[string][]api.ChatTurn{}}}
}

func ValidateMessage(msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", fmt.Errorf("%w: Please type a message", ErrValidation)
	}
	if utf8.RuneCountInString(msg) > MaxMessageLen {
		return "", fmt.Errorf("%w: Message must be at most %d characters", ErrValidation, MaxMessageLen)
	}
	return msg, nil
}

// Chat sends the message with the session's recent turns and records the
// exchange once the backend answers.
func (s *Service) Chat(ctx context.Context, token, session, message string) (*api.ChatReply, error) {
	msg, err := ValidateMessage(message)
	if err != nil {
		return nil, err
	}
	reply, err := s.api.Recommend(ctx, token, api.ChatRequest{Message: msg, History: s.history.get(session)})
	if err != nil {
		return nil, err
	}
	s.history.append(session,
		api.ChatTurn{Role: "user", Content: msg},
		api.ChatTurn{Role: "assistant", Content: reply.Reply},
	)
	return reply, nil
}

func (s *Service) History(session string) []api.ChatTurn { return s.history.get(session) }

func (s *Service) Reset(session string) { s.history.reset(session) }

// Identify forwards an uploaded photo. The body is buffered so its size and
// sniffed type can be checked before anything is sent.
func (s *Service) Identify(ctx context.Context, token, filename string, body io.Reader) (*api.Identification, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: Choose an image to upload", ErrValidation)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: Image must be 5 MB or smaller", ErrValidation)
	}
	ctype := http.DetectContentType(data)
	if !strings.HasPrefix(ctype, "image/") {
		return nil, fmt.Errorf("%w: Only image files are supported", ErrValidation)
	}
	if filename == "" {
		filename = "book.jpg"
	}
	return s.api.IdentifyBook(ctx, token, api.File{Name: filename, ContentType: ctype, Body: bytes.NewReader(data)})
}
