package payment

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
)

const (
	Currency     = "INR"
	MerchantName = "BookNook"
	ThemeColor   = "#10B981"
	LogoPath     = "/static/logo.svg"
)

var ErrValidation = errors.New("validation")

type Backend interface {
	PlaceOrder(ctx context.Context, token string, in api.OrderRequest) (*api.Order, error)
	CreatePaymentOrder(ctx context.Context, token string, in api.PaymentOrderRequest) (*api.PaymentOrder, error)
	VerifyPayment(ctx context.Context, token string, in api.PaymentVerification) (*api.PaymentResult, error)
	PaymentStatus(ctx context.Context, token, orderID string) (*api.PaymentStatus, error)
}

// Cart is cleared once an order is settled.
type Cart interface {
	Clear(ctx context.Context, sessionID string) error
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// Options configure the gateway's browser checkout widget.
type Options struct {
	Key         string  `json:"key"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`

	// BookNookOrderID is echoed back on verification.
	BookNookOrderID string `json:"booknook_order_id"`
}

type Result struct {
	Order   *api.Order
	Summary checkout.Summary
	// Options is nil when the order needs no online payment.
	Options *Options
}

type Service struct {
	api    Backend
	cart   Cart
	events events.Publisher
	now    func() time.Time
}

func New(backend Backend, cart Cart, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{api: backend, cart: cart, events: pub, now: time.Now}
}

// Checkout places the BookNook order. Cash on delivery settles immediately and
// clears the cart; online payment opens a gateway order for the grand total and
// leaves the cart until verification succeeds.
func (s *Service) Checkout(ctx context.Context, token, sessionID string, sum checkout.Summary, in checkout.OrderInput, user *api.User) (Result, error) {
	l := logging.FromContext(ctx).With("service", "payment.checkout")

	req, err := checkout.BuildOrder(sum, in)
	if err != nil {
		return Result{}, err
	}

	order, err := s.api.PlaceOrder(ctx, token, req)
	if err != nil {
		return Result{}, err
	}
	res := Result{Order: order, Summary: sum}

	if sum.Payment == checkout.PaymentCOD && sum.Mode.NeedsShipping() {
		s.settle(ctx, sessionID, "order_placed", order, sum)
		return res, nil
	}

	po, err := s.api.CreatePaymentOrder(ctx, token, api.PaymentOrderRequest{
		Amount:   sum.Total,
		OrderID:  order.ID,
		Currency: Currency,
	})
	if err != nil {
		l.Warn("payment_order_failed", "order_id", order.ID, "status", api.StatusOf(err), "error", err)
		return res, err
	}

	res.Options = OptionsFor(po, order.ID, user)
	s.publish(ctx, "payment_initiated", order, sum)
	return res, nil
}

func OptionsFor(po *api.PaymentOrder, orderID api.ID, user *api.User) *Options {
	o := &Options{
		Key:             po.Key,
		Amount:          po.Amount.Float(),
		Currency:        po.Currency,
		Name:            MerchantName,
		Description:     fmt.Sprintf("Order #%s - Books Purchase", orderID),
		Image:           LogoPath,
		OrderID:         po.OrderID,
		Theme:           Theme{Color: ThemeColor},
		BookNookOrderID: orderID.String(),
	}
	if o.Currency == "" {
		o.Currency = Currency
	}
	if user != nil {
		o.Prefill = Prefill{Name: user.Name, Email: user.Email, Contact: user.Phone}
	}
	return o
}

type Verification struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          string
}

func (v Verification) validate() error {
	if strings.TrimSpace(v.GatewayOrderID) == "" || strings.TrimSpace(v.GatewayPaymentID) == "" ||
		strings.TrimSpace(v.Signature) == "" || strings.TrimSpace(v.OrderID) == "" {
		return fmt.Errorf("%w: Incomplete payment response", ErrValidation)
	}
	return nil
}

// Verify confirms a gateway payment and clears the cart on success.
func (s *Service) Verify(ctx context.Context, token, sessionID string, v Verification) error {
	if err := v.validate(); err != nil {
		return err
	}
	_, err := s.api.VerifyPayment(ctx, token, api.PaymentVerification{
		GatewayOrderID:   v.GatewayOrderID,
		GatewayPaymentID: v.GatewayPaymentID,
		Signature:        v.Signature,
		OrderID:          api.ID(v.OrderID),
	})
	if err != nil {
		return err
	}
	s.settle(ctx, sessionID, "payment_verified", &api.Order{ID: api.ID(v.OrderID)}, checkout.Summary{})
	return nil
}

func (s *Service) Status(ctx context.Context, token, orderID string) (*api.PaymentStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id required", ErrValidation)
	}
	return s.api.PaymentStatus(ctx, token, orderID)
}

func (s *Service) settle(ctx context.Context, sessionID, typ string, order *api.Order, sum checkout.Summary) {
	if s.cart != nil && sessionID != "" {
		if err := s.cart.Clear(ctx, sessionID); err != nil {
			logging.FromContext(ctx).Error("cart_clear_failed", "order_id", order.ID, "error", err)
		}
	}
	s.publish(ctx, typ, order, sum)
}

func (s *Service) publish(ctx context.Context, typ string, order *api.Order, sum checkout.Summary) {
	ev := events.OrderEvent{
		Type:          typ,
		OrderID:       order.ID.String(),
		Mode:          string(sum.Mode),
		PaymentMethod: sum.Payment,
		Total:         sum.Total,
		Items:         len(sum.Lines),
		At:            s.now().UTC(),
	}
	if err := s.events.PublishEvent(ctx, events.TopicOrder, ev.OrderID, ev); err != nil {
		logging.FromContext(ctx).Warn("order_event_publish_failed", "type", typ, "error", err)
	}
}
