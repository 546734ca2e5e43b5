package reader

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/booknook/storefront/internal/api"
)

var ErrNoContent = errors.New("book has no readable content")

type Backend interface {
	ReadingAccess(ctx context.Context, token, bookID string) (*api.ReadingAccess, error)
}

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindHTML  Kind = "html"
	KindOther Kind = "other"
)

const expiryLayout = "02 Jan 2006"

type View struct {
	BookID    string
	Title     string
	Kind      Kind
	Format    string
	Rental    bool
	ExpiresAt string
	PageCount int
	// SourceURL is what the page embeds: the storefront content proxy for
	// PDFs and HTML, the backend reading URL for anything else.
	SourceURL string
}

func (v View) AccessLabel() string {
	if v.Rental {
		return "Rental"
	}
	return "Purchased"
}

type Service struct {
	api Backend
}

func New(backend Backend) *Service {
	return &Service{api: backend}
}

// ContentURL is the storefront route streaming a book's content.
func ContentURL(bookID string) string {
	return "/read/" + bookID + "/content"
}

func (s *Service) Open(ctx context.Context, token, bookID, title string) (View, error) {
	ra, err := s.api.ReadingAccess(ctx, token, bookID)
	if err != nil {
		return View{}, err
	}
	if strings.TrimSpace(ra.ReadingURL) == "" {
		return View{}, ErrNoContent
	}

	v := View{
		BookID:    bookID,
		Title:     title,
		Kind:      kindOf(ra.ContentType),
		Format:    strings.ToUpper(ra.ContentType),
		Rental:    ra.Rental(),
		PageCount: ra.PageCount.Int(),
		SourceURL: ra.ReadingURL,
	}
	if exp, ok := api.ParseTime(ra.ExpiresAt); ok {
		v.ExpiresAt = exp.Format(expiryLayout)
	}
	if v.Kind != KindOther {
		v.SourceURL = ContentURL(bookID)
	}
	return v, nil
}

func kindOf(contentType string) Kind {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "pdf", "application/pdf":
		return KindPDF
	case "html", "text/html":
		return KindHTML
	default:
		return KindOther
	}
}

// ErrorMessage explains a failed open to the reader.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrNoContent) {
		return "Unable to load book content. Please try again later."
	}
	var ae *api.Error
	if !errors.As(err, &ae) {
		return "Unable to open book."
	}
	switch ae.Status {
	case http.StatusUnauthorized:
		return "Authentication failed. Please login again."
	case http.StatusForbidden:
		msg := strings.ToLower(ae.Message)
		switch {
		case strings.Contains(msg, "do not have access"):
			return "You do not have access to this book. Please purchase or rent it first."
		case strings.Contains(msg, "expired"):
			return "Your rental period for this book has expired."
		default:
			return "Access denied. Please purchase or rent this book first."
		}
	case http.StatusNotFound:
		return "Book content not found. Please contact support."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	}
	if strings.Contains(ae.Message, "Invalid token") {
		return "Session expired. Please login again."
	}
	return "Unable to open book."
}
