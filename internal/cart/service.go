package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/events"
	"github.com/booknook/storefront/internal/logging"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type Service struct {
	Repo   *GormRepo
	Events events.Publisher
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{Repo: &GormRepo{DB: db}, Events: pub}
}

func (s *Service) Items(ctx context.Context, sessionID string) ([]Item, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id must not be empty: %w", ErrValidation)
	}
	return s.Repo.Items(ctx, sessionID)
}

// Lines returns the cart in the shape the checkout pricing works on.
func (s *Service) Lines(ctx context.Context, sessionID string) ([]checkout.CartLine, error) {
	items, err := s.Items(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lines := make([]checkout.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, checkout.CartLine{BookID: it.BookID, Qty: it.Quantity})
	}
	return lines, nil
}

func (s *Service) Count(ctx context.Context, sessionID string) (int, error) {
	items, err := s.Items(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func (s *Service) Add(ctx context.Context, sessionID, bookID string, qty int) (*Item, error) {
	if err := validate(sessionID, bookID); err != nil {
		return nil, err
	}
	item := &Item{SessionID: sessionID, BookID: strings.TrimSpace(bookID), Quantity: max(qty, 1)}
	if err := s.Repo.Add(ctx, item); err != nil {
		return nil, err
	}
	s.publish(ctx, "item_added", sessionID, item.BookID, item.Quantity)
	return item, nil
}

// SetQuantity clamps qty to at least 1. A missing line is left alone.
func (s *Service) SetQuantity(ctx context.Context, sessionID, bookID string, qty int) error {
	if err := validate(sessionID, bookID); err != nil {
		return err
	}
	qty = max(qty, 1)
	updated, err := s.Repo.SetQuantity(ctx, sessionID, bookID, qty)
	if err != nil {
		return err
	}
	if updated {
		s.publish(ctx, "quantity_set", sessionID, bookID, qty)
	}
	return nil
}

func (s *Service) RemoveOne(ctx context.Context, sessionID, bookID string) (bool, *Item, error) {
	if err := validate(sessionID, bookID); err != nil {
		return false, nil, err
	}
	deleted, item, err := s.Repo.RemoveOne(ctx, sessionID, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, fmt.Errorf("book not in cart: %w", ErrNotFound)
	}
	if err != nil {
		return false, nil, err
	}
	s.publish(ctx, "item_decremented", sessionID, bookID, item.Quantity)
	return deleted, item, nil
}

func (s *Service) Remove(ctx context.Context, sessionID, bookID string) error {
	if err := validate(sessionID, bookID); err != nil {
		return err
	}
	removed, err := s.Repo.Remove(ctx, sessionID, bookID)
	if err != nil {
		return err
	}
	if removed {
		s.publish(ctx, "item_removed", sessionID, bookID, 0)
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id must not be empty: %w", ErrValidation)
	}
	if err := s.Repo.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.publish(ctx, "cart_cleared", sessionID, "", 0)
	return nil
}

// Replace swaps the whole cart for lines, merging duplicate book ids.
func (s *Service) Replace(ctx context.Context, sessionID string, lines []checkout.CartLine) error {
	if sessionID == "" {
		return fmt.Errorf("session id must not be empty: %w", ErrValidation)
	}
	idx := map[string]int{}
	items := make([]Item, 0, len(lines))
	for _, ln := range lines {
		id := strings.TrimSpace(ln.BookID)
		if id == "" {
			return fmt.Errorf("book id must not be empty: %w", ErrValidation)
		}
		if i, ok := idx[id]; ok {
			items[i].Quantity += max(ln.Qty, 1)
			continue
		}
		idx[id] = len(items)
		items = append(items, Item{BookID: id, Quantity: max(ln.Qty, 1)})
	}
	if err := s.Repo.Replace(ctx, sessionID, items); err != nil {
		return err
	}
	s.publish(ctx, "cart_replaced", sessionID, "", len(items))
	return nil
}

func (s *Service) publish(ctx context.Context, typ, sessionID, bookID string, qty int) {
	ev := events.CartEvent{Type: typ, SessionID: sessionID, BookID: bookID, Quantity: qty, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, events.TopicCart, sessionID, ev); err != nil {
		logging.FromContext(ctx).Warn("cart_event_publish_failed", "type", typ, "error", err)
	}
}

func validate(sessionID, bookID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id must not be empty: %w", ErrValidation)
	}
	if strings.TrimSpace(bookID) == "" {
		return fmt.Errorf("book id must not be empty: %w", ErrValidation)
	}
	return nil
}
