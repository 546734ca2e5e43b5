package checkout

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/api"
)

var ErrValidation = errors.New("validation")

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const etaLayout = "2006-01-02T15:04:05.000Z07:00"

func ValidEmail(s string) bool { return emailRe.MatchString(s) }

type OrderInput struct {
	AddressID string
	GiftEmail string
	Notes     string
}

// ValidationMessage strips the sentinel prefix so the text can be shown to the user.
func ValidationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}

// BuildOrder turns a priced cart into the backend order request.
func BuildOrder(sum Summary, in OrderInput) (api.OrderRequest, error) {
	if len(sum.Lines) == 0 {
		return api.OrderRequest{}, fmt.Errorf("%w: Your cart is empty", ErrValidation)
	}
	giftEmail := strings.TrimSpace(in.GiftEmail)
	if sum.Mode == ModeGift && !ValidEmail(giftEmail) {
		return api.OrderRequest{}, fmt.Errorf("%w: Enter a valid gift email", ErrValidation)
	}
	addressID := strings.TrimSpace(in.AddressID)
	if sum.NeedsShipping && addressID == "" {
		return api.OrderRequest{}, fmt.Errorf("%w: Select or add an address", ErrValidation)
	}

	req := api.OrderRequest{
		Mode:          string(sum.Mode),
		Items:         make([]api.OrderLine, 0, len(sum.Lines)),
		PaymentMethod: sum.Payment,
		ShippingFee:   sum.ShippingFee,
		CODFee:        sum.CODFee,
	}
	for _, ln := range sum.Lines {
		req.Items = append(req.Items, api.OrderLine{BookID: api.ID(ln.BookID), Quantity: ln.Qty})
	}
	if sum.NeedsShipping {
		speed := sum.Speed
		req.ShippingAddressID = &addressID
		req.ShippingSpeed = &speed
	}
	if sum.DeliveryETA != nil {
		eta := sum.DeliveryETA.UTC().Format(etaLayout)
		req.DeliveryETA = &eta
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		req.Notes = &notes
	}
	if sum.Mode == ModeRent {
		days := sum.RentalDays
		req.RentalDuration = &days
	}
	if sum.Mode == ModeGift {
		req.GiftEmail = &giftEmail
	}
	return req, nil
}

type OrderTotals struct {
	ItemsTotal  float64
	ShippingFee float64
	CODFee      float64
	GrandTotal  float64
	ETA         string
	ShowETA     bool
}

const DateLayout = "02 Jan 2006"

// TotalsFor recomputes the display totals of a stored order, filling fees the
// backend did not persist.
func TotalsFor(o api.Order) OrderTotals {
	var t OrderTotals
	for _, it := range o.Items {
		t.ItemsTotal += it.Price.Float() * it.Quantity.Float()
	}
	t.ItemsTotal = roundPaise(t.ItemsTotal)

	switch {
	case o.ShippingFee != nil:
		t.ShippingFee = o.ShippingFee.Float()
	case o.ShippingSpeed != "":
		t.ShippingFee = ShippingFee(o.ShippingSpeed)
	}
	switch {
	case o.CODFee != nil:
		t.CODFee = o.CODFee.Float()
	case strings.EqualFold(o.PaymentMethod, PaymentCOD):
		t.CODFee = CODFee
	}
	t.GrandTotal = roundPaise(t.ItemsTotal + t.ShippingFee + t.CODFee)
	t.ShowETA = t.ShippingFee > 0 || o.ShippingSpeed != ""
	t.ETA = etaText(o)
	return t
}

func etaText(o api.Order) string {
	if tm, ok := api.ParseTime(o.DeliveryETA); ok {
		return tm.UTC().Format(DateLayout)
	}
	if o.ShippingSpeed != "" {
		if created, ok := api.ParseTime(o.CreatedAt); ok {
			return created.AddDate(0, 0, ETADays(o.ShippingSpeed)).UTC().Format(DateLayout)
		}
		return "Depends on " + o.ShippingSpeed
	}
	return "-"
}

// DedupeOrders keeps the first order per id in the original order. Orders
// without an id are dropped.
func DedupeOrders(orders []api.Order) []api.Order {
	seen := make(map[api.ID]struct{}, len(orders))
	out := make([]api.Order, 0, len(orders))
	for _, o := range orders {
		if o.ID.IsZero() {
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}

// RentalActive reports whether a rental end timestamp lies in the future.
func RentalActive(rentalEnd string, now time.Time) bool {
	end, ok := api.ParseTime(rentalEnd)
	return ok && now.Before(end)
}
