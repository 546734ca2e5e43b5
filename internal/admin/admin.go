package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/events"
	"github.com/booknook/storefront/internal/logging"
	"golang.org/x/sync/errgroup"
)

var (
	ErrValidation = errors.New("validation")
	ErrNoBookID   = errors.New("failed to get book id from creation response")
)

const booksPageLimit = 100

type Backend interface {
	AdminOrders(ctx context.Context, token string) ([]api.Order, error)
	AdminUsers(ctx context.Context, token string) ([]api.User, error)
	Books(ctx context.Context, page, limit int) (api.BooksPage, error)
	CreateBook(ctx context.Context, token string, in api.BookInput) (api.ID, error)
	UpdateBook(ctx context.Context, token, id string, fields map[string]any) (string, error)
	DeleteBook(ctx context.Context, token, id string) (string, error)
	UploadCover(ctx context.Context, token, id string, f api.File) (string, error)
	UploadContent(ctx context.Context, token, id string, f api.File, pageCount int) error
	UploadSample(ctx context.Context, token, id string, f api.File) error
}

// Catalog is notified after book mutations so cached pages and the search
// index catch up.
type Catalog interface {
	Forget(id string)
	Remove(ctx context.Context, id string) error
	TriggerSync()
}

type Service struct {
	api     Backend
	catalog Catalog
	events  events.Publisher
	now     func() time.Time
}

func New(backend Backend, catalog Catalog, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{api: backend, catalog: catalog, events: pub, now: time.Now}
}

// Snapshot is everything the admin screens are computed from.
type Snapshot struct {
	Orders []api.Order
	Users  []api.User
	Books  []api.Book
}

// Load fetches orders, users and books concurrently. A failed fetch leaves its
// list empty instead of failing the screen.
func (s *Service) Load(ctx context.Context, token string) Snapshot {
	l := logging.FromContext(ctx).With("service", "admin")

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := s.api.AdminOrders(gctx, token)
		if err != nil {
			l.Warn("admin_orders_unavailable", "status", api.StatusOf(err), "error", err)
		}
		snap.Orders = checkout.DedupeOrders(orders)
		return nil
	})
	g.Go(func() error {
		users, err := s.api.AdminUsers(gctx, token)
		if err != nil {
			l.Warn("admin_users_unavailable", "status", api.StatusOf(err), "error", err)
			users = []api.User{}
		}
		snap.Users = users
		return nil
	})
	g.Go(func() error {
		page, err := s.api.Books(gctx, 1, booksPageLimit)
		if err != nil {
			l.Warn("admin_books_unavailable", "status", api.StatusOf(err), "error", err)
			page.Books = []api.Book{}
		}
		snap.Books = page.Books
		return nil
	})
	_ = g.Wait()
	return snap
}

func (s *Service) Dashboard(ctx context.Context, token string) Dashboard {
	snap := s.Load(ctx, token)
	return BuildDashboard(snap.Orders, snap.Users, snap.Books)
}

func (s *Service) Analytics(ctx context.Context, token string) Analytics {
	snap := s.Load(ctx, token)
	return BuildAnalytics(snap.Orders, snap.Users, snap.Books, s.now())
}

// BookForm is the admin create/edit form. Empty ID creates a new book.
type BookForm struct {
	ID          string
	Title       string
	Author      string
	Price       float64
	Stock       int
	Description string
	PageCount   int
	Cover       *api.File
	Content     *api.File
	Sample      *api.File
}

func (f BookForm) input() api.BookInput {
	return api.BookInput{
		Title:       strings.TrimSpace(f.Title),
		Author:      strings.TrimSpace(f.Author),
		Price:       f.Price,
		Stock:       f.Stock,
		Description: strings.TrimSpace(f.Description),
		PageCount:   f.PageCount,
	}
}

// SaveResult reports what happened to each step. Upload failures do not undo
// the saved book; they are listed in Warnings.
type SaveResult struct {
	BookID   string
	Created  bool
	Message  string
	CoverURL string
	Notices  []string
	Warnings []string
}

func (s *Service) SaveBook(ctx context.Context, token string, f BookForm) (SaveResult, error) {
	l := logging.FromContext(ctx).With("service", "admin.save_book")

	in := f.input()
	if in.Title == "" || in.Author == "" {
		return SaveResult{}, fmt.Errorf("%w: Title and author are required", ErrValidation)
	}
	if in.Price < 0 || in.Stock < 0 {
		return SaveResult{}, fmt.Errorf("%w: Price and stock must not be negative", ErrValidation)
	}

	var res SaveResult
	if id := strings.TrimSpace(f.ID); id != "" {
		fields := map[string]any{
			"title":       in.Title,
			"author":      in.Author,
			"price":       in.Price,
			"stock":       in.Stock,
			"description": nullable(in.Description),
			"page_count":  in.PageCount,
		}
		if _, err := s.api.UpdateBook(ctx, token, id, fields); err != nil {
			return SaveResult{}, err
		}
		res = SaveResult{BookID: id, Message: "Book info updated"}
	} else {
		id, err := s.api.CreateBook(ctx, token, in)
		if err != nil {
			return SaveResult{}, err
		}
		if id.IsZero() {
			return SaveResult{}, ErrNoBookID
		}
		res = SaveResult{BookID: id.String(), Created: true, Message: "Book created"}
	}

	if f.Cover != nil {
		url, err := s.api.UploadCover(ctx, token, res.BookID, *f.Cover)
		if err == nil && url != "" {
			_, err = s.api.UpdateBook(ctx, token, res.BookID, map[string]any{"image_url": url, "cover": url})
		}
		if err != nil {
			l.Warn("cover_upload_failed", "book_id", res.BookID, "error", err)
			res.Warnings = append(res.Warnings, "Cover upload failed: "+err.Error())
		} else {
			res.CoverURL = url
			res.Notices = append(res.Notices, "Book cover uploaded")
		}
	}
	if f.Content != nil {
		if err := s.api.UploadContent(ctx, token, res.BookID, *f.Content, in.PageCount); err != nil {
			l.Warn("content_upload_failed", "book_id", res.BookID, "error", err)
			res.Warnings = append(res.Warnings, "Content upload failed: "+err.Error())
		} else {
			res.Notices = append(res.Notices, "Book content uploaded")
		}
	}
	if f.Sample != nil {
		if err := s.api.UploadSample(ctx, token, res.BookID, *f.Sample); err != nil {
			l.Warn("sample_upload_failed", "book_id", res.BookID, "error", err)
			res.Warnings = append(res.Warnings, "Sample upload failed: "+err.Error())
		} else {
			res.Notices = append(res.Notices, "Book sample uploaded")
		}
	}

	typ := "book_updated"
	if res.Created {
		typ = "book_created"
	}
	s.changed(ctx, typ, res.BookID)
	return res, nil
}

func (s *Service) UpdateStock(ctx context.Context, token, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: Stock must not be negative", ErrValidation)
	}
	if _, err := s.api.UpdateBook(ctx, token, id, map[string]any{"stock": stock}); err != nil {
		return err
	}
	s.changed(ctx, "book_stock_updated", id)
	return nil
}

func (s *Service) DeleteBook(ctx context.Context, token, id string) error {
	if _, err := s.api.DeleteBook(ctx, token, id); err != nil {
		return err
	}
	if s.catalog != nil {
		if err := s.catalog.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "book_id", id, "error", err)
		}
	}
	s.changed(ctx, "book_deleted", id)
	return nil
}

func (s *Service) changed(ctx context.Context, typ, id string) {
	if s.catalog != nil {
		s.catalog.Forget(id)
		s.catalog.TriggerSync()
	}
	ev := events.BookEvent{Type: typ, BookID: id, At: s.now().UTC()}
	if err := s.events.PublishEvent(ctx, events.TopicBook, id, ev); err != nil {
		logging.FromContext(ctx).Warn("book_event_publish_failed", "type", typ, "error", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
