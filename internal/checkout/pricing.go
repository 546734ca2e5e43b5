package checkout

import (
	"math"
	"strings"
	"time"

	"github.com/booknook/storefront/internal/api"
)

type Mode string

const (
	ModeBuy  Mode = "buy"
	ModeRent Mode = "rent"
	ModeGift Mode = "gift"
)

// ParseMode maps unknown or empty input to buy.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRent:
		return ModeRent
	case ModeGift:
		return ModeGift
	default:
		return ModeBuy
	}
}

// NeedsShipping reports whether physical delivery applies. Only purchases ship.
func (m Mode) NeedsShipping() bool { return m == ModeBuy }

const (
	SpeedStandard = "standard"
	SpeedExpress  = "express"
	SpeedPriority = "priority"

	PaymentRazorpay = "razorpay"
	PaymentCOD      = "cod"
)

const (
	CODFee            = 10.0
	DefaultRentalDays = 30
	defaultETADays    = 5
)

var shippingFees = map[string]float64{
	SpeedStandard: 30,
	SpeedExpress:  70,
	SpeedPriority: 120,
}

var etaDays = map[string]int{
	SpeedStandard: 5,
	SpeedExpress:  3,
	SpeedPriority: 1,
}

// ShippingFee returns the flat fee for a speed, 0 when the speed is unknown.
func ShippingFee(speed string) float64 {
	return shippingFees[strings.ToLower(speed)]
}

func ETADays(speed string) int {
	if d, ok := etaDays[strings.ToLower(speed)]; ok {
		return d
	}
	return defaultETADays
}

// RentFactor is the share of the list price charged for a rental.
func RentFactor(mode Mode, days int) float64 {
	if mode != ModeRent {
		return 1
	}
	if days == DefaultRentalDays {
		return 0.35
	}
	return 0.55
}

// Today is the caller's calendar date pinned to UTC midnight.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func roundPaise(v float64) float64 {
	return math.Round(v*100) / 100
}

type CartLine struct {
	BookID string
	Qty    int
}

type Selection struct {
	Mode       Mode
	Speed      string
	Payment    string
	RentalDays int
}

// Normalize fills defaults. Unknown speeds become standard, and anything but
// COD on a shipped order pays through the gateway.
func (s Selection) Normalize() Selection {
	s.Mode = ParseMode(string(s.Mode))
	s.Speed = strings.ToLower(strings.TrimSpace(s.Speed))
	if _, ok := shippingFees[s.Speed]; !ok {
		s.Speed = SpeedStandard
	}
	s.Payment = strings.ToLower(strings.TrimSpace(s.Payment))
	if s.Payment != PaymentCOD || !s.Mode.NeedsShipping() {
		s.Payment = PaymentRazorpay
	}
	if s.RentalDays <= 0 {
		s.RentalDays = DefaultRentalDays
	}
	return s
}

type Line struct {
	BookID   string
	Title    string
	Author   string
	ImageURL string
	Qty      int
	Unit     float64
	Total    float64
}

type Summary struct {
	Selection
	Lines         []Line
	Subtotal      float64
	ShippingFee   float64
	CODFee        float64
	Total         float64
	NeedsShipping bool
	OrderDate     time.Time
	DueDate       *time.Time
	DeliveryETA   *time.Time
}

// Compute prices the cart. Books missing from the lookup are priced at 0 as "Item".
func Compute(lines []CartLine, books map[string]api.Book, sel Selection, now time.Time) Summary {
	sel = sel.Normalize()
	factor := RentFactor(sel.Mode, sel.RentalDays)

	sum := Summary{
		Selection:     sel,
		Lines:         make([]Line, 0, len(lines)),
		NeedsShipping: sel.Mode.NeedsShipping(),
		OrderDate:     Today(now),
	}

	for _, cl := range lines {
		qty := max(cl.Qty, 1)
		ln := Line{BookID: cl.BookID, Title: "Item", Qty: qty}
		if b, ok := books[cl.BookID]; ok {
			if b.Title != "" {
				ln.Title = b.Title
			}
			ln.Author = b.Author
			ln.ImageURL = b.ImageURL
			ln.Unit = roundPaise(b.Price * factor)
		}
		ln.Total = roundPaise(ln.Unit * float64(qty))
		sum.Subtotal += ln.Total
		sum.Lines = append(sum.Lines, ln)
	}
	sum.Subtotal = roundPaise(sum.Subtotal)

	if sum.NeedsShipping {
		sum.ShippingFee = ShippingFee(sel.Speed)
		if sel.Payment == PaymentCOD {
			sum.CODFee = CODFee
		}
		eta := sum.OrderDate.AddDate(0, 0, ETADays(sel.Speed))
		sum.DeliveryETA = &eta
	}
	if sel.Mode == ModeRent {
		due := sum.OrderDate.AddDate(0, 0, sel.RentalDays)
		sum.DueDate = &due
	}

	sum.Total = roundPaise(sum.Subtotal + sum.ShippingFee + sum.CODFee)
	return sum
}
