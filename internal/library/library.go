package library

import (
	"context"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/logging"
	"golang.org/x/sync/errgroup"
)

type Backend interface {
	Library(ctx context.Context, token string) (*api.Library, error)
	Orders(ctx context.Context, token string) ([]api.Order, error)
	Gifts(ctx context.Context, token string) ([]api.Gift, error)
	ClaimGift(ctx context.Context, token, giftID string) (api.ClaimResult, error)
	ClaimGifts(ctx context.Context, token string) (api.ClaimResult, error)
	MarkGiftRead(ctx context.Context, token, giftID string) (api.ReadResult, error)
	MarkAllGiftsRead(ctx context.Context, token string) (api.ReadResult, error)
	Wishlist(ctx context.Context, token string) ([]api.WishlistItem, error)
	AddToWishlist(ctx context.Context, token, bookID string) (string, error)
	RemoveFromWishlist(ctx context.Context, token, bookID string) (string, error)
}

type BookResolver interface {
	Lookup(ctx context.Context, ids []string) map[string]api.Book
}

type Entry struct {
	Book        api.Book
	PurchasedAt string
	RentalEnd   string
	Active      bool
}

type View struct {
	Owned      []Entry
	Rented     []Entry
	Gifts      []api.Gift
	Wishlist   []api.WishlistItem
	Unclaimed  int
	FromOrders bool
}

type Service struct {
	api   Backend
	books BookResolver
	now   func() time.Time
}

func New(backend Backend, books BookResolver) *Service {
	return &Service{api: backend, books: books, now: time.Now}
}

// Load assembles the library page. Gifts and the wishlist degrade to empty
// lists when their endpoints fail.
func (s *Service) Load(ctx context.Context, token string) (View, error) {
	l := logging.FromContext(ctx).With("service", "library")

	var (
		lib      *api.Library
		fromOrd  bool
		gifts    []api.Gift
		wishlist []api.WishlistItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lib, fromOrd, err = s.library(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		if gifts, err = s.api.Gifts(gctx, token); err != nil {
			l.Warn("gifts_unavailable", "error", err)
			gifts = []api.Gift{}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if wishlist, err = s.api.Wishlist(gctx, token); err != nil {
			l.Warn("wishlist_unavailable", "error", err)
			wishlist = []api.WishlistItem{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	v := View{Gifts: gifts, Wishlist: wishlist, FromOrders: fromOrd, Unclaimed: Unclaimed(gifts)}
	v.Owned = s.resolve(ctx, lib.Owned)
	v.Rented = s.resolve(ctx, lib.Rented)
	now := s.now()
	for i := range v.Rented {
		v.Rented[i].Active = checkout.RentalActive(v.Rented[i].RentalEnd, now)
	}
	return v, nil
}

func (s *Service) library(ctx context.Context, token string) (*api.Library, bool, error) {
	lib, err := s.api.Library(ctx, token)
	if err == nil {
		return lib, false, nil
	}
	logging.FromContext(ctx).Warn("library_fallback_to_orders", "error", err)
	orders, oerr := s.api.Orders(ctx, token)
	if oerr != nil {
		orders = nil
	}
	return FromOrders(orders), true, nil
}

// FromOrders derives the library from order history: purchases become unique
// owned books and rentals keep their order's end date. Gift orders and orders
// without a recognised mode are skipped.
func FromOrders(orders []api.Order) *api.Library {
	lib := &api.Library{Owned: []api.LibraryEntry{}, Rented: []api.LibraryEntry{}}
	seen := map[api.ID]struct{}{}
	for _, o := range checkout.DedupeOrders(orders) {
		switch checkout.Mode(o.Mode) {
		case checkout.ModeBuy:
			for _, it := range o.Items {
				if _, dup := seen[it.BookID]; dup {
					continue
				}
				seen[it.BookID] = struct{}{}
				lib.Owned = append(lib.Owned, api.LibraryEntry{Book: api.Book{ID: it.BookID, Title: it.Title}})
			}
		case checkout.ModeRent:
			for _, it := range o.Items {
				lib.Rented = append(lib.Rented, api.LibraryEntry{Book: api.Book{ID: it.BookID, Title: it.Title}, RentalEnd: o.RentalEnd})
			}
		}
	}
	return lib
}

func (s *Service) resolve(ctx context.Context, entries []api.LibraryEntry) []Entry {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Book.Title == "" {
			ids = append(ids, e.Book.ID.String())
		}
	}
	var found map[string]api.Book
	if len(ids) > 0 && s.books != nil {
		found = s.books.Lookup(ctx, ids)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		b := e.Book
		if full, ok := found[b.ID.String()]; ok {
			b = full
		}
		if b.Title == "" {
			b.Title = "Book " + b.ID.String()
		}
		out = append(out, Entry{Book: b, PurchasedAt: e.PurchasedAt, RentalEnd: e.RentalEnd})
	}
	return out
}
